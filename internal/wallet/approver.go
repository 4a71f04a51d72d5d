package wallet

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

type Action string

const (
	ActionConnect Action = "connect"
	ActionSign    Action = "sign"
)

// ApprovalRequest describes what the wallet owner is asked to allow.
type ApprovalRequest struct {
	Action  Action
	Address string
	Summary string
}

// Approver stands in for the wallet's confirmation dialog.
type Approver interface {
	Approve(ctx context.Context, req ApprovalRequest) (bool, error)
}

type ApproverFunc func(ctx context.Context, req ApprovalRequest) (bool, error)

func (f ApproverFunc) Approve(ctx context.Context, req ApprovalRequest) (bool, error) {
	return f(ctx, req)
}

// AutoApprove accepts every request. Meant for unattended server wallets.
var AutoApprove Approver = ApproverFunc(func(context.Context, ApprovalRequest) (bool, error) {
	return true, nil
})

// PromptApprover asks on a terminal and accepts only an explicit "y" or "yes".
type PromptApprover struct {
	mu  sync.Mutex
	in  *bufio.Reader
	out io.Writer
}

func NewPromptApprover(in io.Reader, out io.Writer) *PromptApprover {
	return &PromptApprover{in: bufio.NewReader(in), out: out}
}

func (p *PromptApprover) Approve(ctx context.Context, req ApprovalRequest) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, err := fmt.Fprintf(p.out, "%s\nApprove %s for %s? [y/N]: ", req.Summary, req.Action, req.Address); err != nil {
		return false, fmt.Errorf("write prompt: %w", err)
	}

	type answer struct {
		line string
		err  error
	}
	ch := make(chan answer, 1)
	go func() {
		line, err := p.in.ReadString('\n')
		ch <- answer{line: line, err: err}
	}()

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case a := <-ch:
		if a.err != nil && a.err != io.EOF {
			return false, fmt.Errorf("read answer: %w", a.err)
		}
		switch strings.ToLower(strings.TrimSpace(a.line)) {
		case "y", "yes":
			return true, nil
		}
		return false, nil
	}
}
