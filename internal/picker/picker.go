package picker

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/alexivanou/sportslocations/internal/model"
	"github.com/alexivanou/sportslocations/internal/widget"
	"go.uber.org/zap"
)

const helpText = `commands: search <text> | more | add <id> | remove <id> | show | save | quit`

// LayoutSaver persists the edited layout
type LayoutSaver interface {
	SaveLayout(ctx context.Context, layout *model.Layout) (*model.Layout, error)
}

// Picker runs a command loop over one widget
type Picker struct {
	widget *widget.Widget
	saver  LayoutSaver
	layout *model.Layout
	out    io.Writer
	logger *zap.Logger
}

// New creates a picker editing layout through w
func New(w *widget.Widget, saver LayoutSaver, layout *model.Layout, out io.Writer, logger *zap.Logger) *Picker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Picker{
		widget: w,
		saver:  saver,
		layout: layout,
		out:    out,
		logger: logger,
	}
}

// Run reads commands from in until quit or EOF
func (p *Picker) Run(ctx context.Context, in io.Reader) error {
	fmt.Fprintln(p.out, helpText)

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		quit, err := p.Execute(ctx, scanner.Text())
		if err != nil {
			fmt.Fprintln(p.out, noticeStyle.Render(err.Error()))
		}
		if quit {
			return nil
		}
	}
	return scanner.Err()
}

// Execute runs a single command line and reports whether the session should end
func (p *Picker) Execute(ctx context.Context, line string) (bool, error) {
	cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "":
		return false, nil
	case "quit", "exit":
		return true, nil
	case "help":
		fmt.Fprintln(p.out, helpText)
		return false, nil
	case "show":
		p.widget.Activate()
		p.widget.Wait()
	case "search":
		p.widget.OnSearchInput(arg)
		p.widget.Wait()
	case "more":
		if !p.widget.LoadMore() {
			return false, errors.New("no more results")
		}
		p.widget.Wait()
	case "add":
		id, err := strconv.Atoi(arg)
		if err != nil {
			return false, fmt.Errorf("invalid id %q", arg)
		}
		if err := p.widget.AddChoice(id); err != nil && !errors.Is(err, widget.ErrSelectionLimitExceeded) {
			return false, err
		}
	case "remove":
		id, err := strconv.Atoi(arg)
		if err != nil {
			return false, fmt.Errorf("invalid id %q", arg)
		}
		if !p.widget.RemoveChoice(id) {
			return false, fmt.Errorf("location %d is not selected", id)
		}
	case "save":
		return false, p.save(ctx)
	default:
		return false, fmt.Errorf("unknown command %q (%s)", cmd, helpText)
	}

	fmt.Fprintln(p.out, Render(p.widget.View()))
	return false, nil
}

func (p *Picker) save(ctx context.Context) error {
	if !p.widget.Valid() {
		return errors.New("not enough selected locations")
	}

	p.layout.Selected = p.widget.Value()
	saved, err := p.saver.SaveLayout(ctx, p.layout)
	if err != nil {
		return fmt.Errorf("failed to save layout: %w", err)
	}
	p.layout = saved

	p.logger.Info("Layout saved", zap.String("id", saved.ID), zap.Int("selected", len(saved.Selected)))
	fmt.Fprintln(p.out, selectedStyle.Render(fmt.Sprintf("saved %s with %d locations", saved.ID, len(saved.Selected))))
	return nil
}
