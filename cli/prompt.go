package cli

import (
	"strconv"
	"strings"

	"github.com/YuminosukeSato/carprice/app"
	"github.com/YuminosukeSato/carprice/pkg/errors"
	"github.com/charmbracelet/huh"
)

// Prompter asks the user for the values a command was not given as arguments.
type Prompter interface {
	SelectMode() (app.Mode, error)
	Mileage() (float64, error)
}

type huhPrompter struct{}

// NewPrompter returns a terminal Prompter. Aborting a prompt selects
// app.ModeExit or returns huh.ErrUserAborted for the mileage.
func NewPrompter() Prompter {
	return huhPrompter{}
}

func (huhPrompter) SelectMode() (app.Mode, error) {
	opts := make([]huh.Option[app.Mode], 0, len(app.Modes()))
	for i, m := range app.Modes() {
		opts = append(opts, huh.NewOption(strconv.Itoa(i+1)+". "+m.Label(), m))
	}

	mode := app.ModeReport
	form := huh.NewForm(huh.NewGroup(
		huh.NewSelect[app.Mode]().
			Title("Linear regression").
			Description("Choose what to do after training").
			Options(opts...).
			Value(&mode),
	))
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return app.ModeExit, nil
		}
		return 0, err
	}
	return mode, nil
}

func (huhPrompter) Mileage() (float64, error) {
	var input string
	form := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Enter car mileage (km)").
			Value(&input).
			Validate(func(s string) error {
				_, err := parseMileage(s)
				return err
			}),
	))
	if err := form.Run(); err != nil {
		return 0, err
	}
	return parseMileage(input)
}

func parseMileage(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || !errors.IsFinite(v) {
		return 0, errors.NewValueError("cli.parseMileage", "invalid mileage input "+strconv.Quote(s))
	}
	return v, nil
}
