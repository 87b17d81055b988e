package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vsinha/fulfillment/pkg/application/services/session"
	"github.com/vsinha/fulfillment/pkg/domain/entities"
	"github.com/vsinha/fulfillment/pkg/domain/services/allocation"
	"github.com/vsinha/fulfillment/pkg/interfaces/cli/output"
)

// SessionOptions holds flags for the interactive session command
type SessionOptions struct {
	*RootOptions
	DemandID string
}

// NewSessionCommand creates the interactive allocation command
func NewSessionCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SessionOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "session",
		Short: "Allocate a demand interactively",
		Long: `Open an allocation session and edit the plan line by line.
Type 'help' at the prompt for available commands.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSession(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.DemandID, "demand", "", "demand id (required)")
	_ = cmd.MarkFlagRequired("demand")

	return cmd
}

func runSession(cmd *cobra.Command, opts *SessionOptions) error {
	ctx := cmd.Context()
	b, err := openBackend(ctx, opts.Config, opts.Logger)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open storage", err)
	}
	defer b.Close()

	sess, err := b.sessions(opts.Config, opts.Logger).Open(ctx, entities.DemandID(opts.DemandID))
	if err != nil {
		return WrapExitError(ExitFailure, "failed to open session", err)
	}

	repl := &sessionREPL{
		sess: sess,
		out:  opts.formatter(cmd),
		w:    cmd.OutOrStdout(),
	}
	return repl.run(ctx, cmd.InOrStdin())
}

var errQuit = errors.New("quit")

type sessionREPL struct {
	sess *session.Session
	out  *output.Formatter
	w    io.Writer
}

func (r *sessionREPL) run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	fmt.Fprintf(r.w, "=== Allocation session for %s ===\n", r.sess.Demand().ID)
	fmt.Fprintln(r.w, "Type 'help' for available commands")
	fmt.Fprintln(r.w)

	for {
		fmt.Fprint(r.w, "fulfill> ")
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		err := r.processCommand(ctx, line)
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			fmt.Fprintf(r.w, "Error: %v\n", err)
		}
		fmt.Fprintln(r.w)
	}

	return scanner.Err()
}

func (r *sessionREPL) processCommand(ctx context.Context, line string) error {
	parts := strings.Fields(line)
	command, args := parts[0], parts[1:]

	switch command {
	case "help", "h":
		r.printHelp()
		return nil
	case "show", "status":
		return r.out.View(r.sess.View())
	case "add", "edit":
		if len(args) != 2 {
			return fmt.Errorf("usage: %s <location-id> <qty>", command)
		}
		op := allocation.OpAddLocation
		if command == "edit" {
			op = allocation.OpEditLocation
		}
		return r.step(Step{Op: string(op), LocationID: parseID(args[0]), Qty: args[1]})
	case "remove", "rm":
		if len(args) != 1 {
			return fmt.Errorf("usage: remove <location-id>")
		}
		return r.step(Step{Op: string(allocation.OpRemoveLocation), LocationID: parseID(args[0])})
	case "external", "ext":
		if len(args) != 2 {
			return fmt.Errorf("usage: external <po|market_purchase|site_purchase> <qty>")
		}
		return r.step(Step{Op: string(allocation.OpSetExternal), Channel: args[0], Qty: args[1]})
	case "submit":
		records, err := r.sess.Submit(ctx)
		if err != nil {
			return err
		}
		if err := r.out.Records(r.sess.Demand().ID, records); err != nil {
			return err
		}
		return errQuit
	case "cancel":
		if err := r.sess.Cancel(); err != nil {
			return err
		}
		fmt.Fprintln(r.w, "Session cancelled")
		return errQuit
	case "quit", "q", "exit":
		return errQuit
	default:
		return fmt.Errorf("unknown command: %s (type 'help' for available commands)", command)
	}
}

func (r *sessionREPL) step(s Step) error {
	if err := s.Apply(r.sess); err != nil {
		return err
	}
	plan := r.sess.Plan()
	fmt.Fprintf(r.w, "%s: allocated %d of %d, %d remaining\n",
		r.sess.State(), plan.TotalAllocated(), plan.ApprovedQty(), plan.Remaining())
	return nil
}

func (r *sessionREPL) printHelp() {
	fmt.Fprintln(r.w, `Commands:
  show                          show the plan with per-target capacity
  add <location-id> <qty>       allocate from a location
  edit <location-id> <qty>      change a location allocation (0 removes it)
  remove <location-id>          drop a location allocation
  external <channel> <qty>      set po, market_purchase or site_purchase
  submit                        submit the fulfillment and exit
  cancel                        discard the plan and exit
  quit                          exit without submitting`)
}

// parseID returns 0 for malformed ids, which Step rejects
func parseID(s string) int64 {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return id
}
