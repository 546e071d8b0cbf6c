package wallet

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// Approver asks the user whether an application may use an account
type Approver interface {
	Approve(ctx context.Context, account string) (bool, error)
}

// ApproverFunc adapts a function to the Approver interface
type ApproverFunc func(ctx context.Context, account string) (bool, error)

func (f ApproverFunc) Approve(ctx context.Context, account string) (bool, error) {
	return f(ctx, account)
}

// AutoApprove grants every request without asking
var AutoApprove Approver = ApproverFunc(func(context.Context, string) (bool, error) {
	return true, nil
})

// PromptApprover asks on out and reads a y/N answer from in.
// A single reader goroutine owns in, so a prompt abandoned through its
// context leaves the next line for the next prompt.
type PromptApprover struct {
	in  *bufio.Reader
	out io.Writer

	once    sync.Once
	answers chan answer
}

type answer struct {
	line string
	err  error
}

// NewPromptApprover creates a terminal prompt approver
func NewPromptApprover(in io.Reader, out io.Writer) *PromptApprover {
	return &PromptApprover{
		in:      bufio.NewReader(in),
		out:     out,
		answers: make(chan answer),
	}
}

// Approve blocks until the user answers or ctx is done
func (p *PromptApprover) Approve(ctx context.Context, account string) (bool, error) {
	if _, err := fmt.Fprintf(p.out, "Allow taskchain to use account %s? [y/N] ", account); err != nil {
		return false, err
	}
	p.once.Do(func() { go p.readAnswers() })

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case a, ok := <-p.answers:
		if !ok {
			return false, nil
		}
		if a.err != nil && a.err != io.EOF {
			return false, a.err
		}
		switch strings.ToLower(strings.TrimSpace(a.line)) {
		case "y", "yes":
			return true, nil
		}
		return false, nil
	}
}

// readAnswers hands each line to whichever prompt is waiting; the channel is
// closed once in is exhausted
func (p *PromptApprover) readAnswers() {
	defer close(p.answers)
	for {
		line, err := p.in.ReadString('\n')
		p.answers <- answer{line: line, err: err}
		if err != nil {
			return
		}
	}
}
