package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

func (a *App) BMI(ctx context.Context) error {
	height, err := a.readNumber("Height (cm)")
	if err != nil {
		return err
	}
	weight, err := a.readNumber("Weight (kg)")
	if err != nil {
		return err
	}

	res, err := a.api.BMI(ctx, height, weight)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "BMI %.1f: %s\n%s\n", res.Value, res.Label, res.Message)
	return nil
}

// readNumber accepts both "72.5" and "72,5".
func (a *App) readNumber(prompt string) (float64, error) {
	s, err := getSimpleText(a.reader, prompt, a.out)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return v, nil
}
