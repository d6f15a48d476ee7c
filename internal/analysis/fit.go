package analysis

import (
	"fmt"

	"github.com/KaramelBytes/treedash-cli/internal/schema"
)

// Fit is an ordinary least squares line y = Slope*x + Intercept with the
// Pearson coefficient of the pairs it was fitted on.
type Fit struct {
	X, Y      string
	Slope     float64
	Intercept float64
	R         float64
	N         int
	// Defined is false when x is constant or fewer than two pairs exist.
	Defined bool
}

// At evaluates the fitted line.
func (f Fit) At(x float64) float64 { return f.Slope*x + f.Intercept }

// Point is one complete (x, y) pair.
type Point struct{ X, Y float64 }

// Pairs returns rows where both x and y are numeric.
func Pairs(c *schema.Canonical, x, y string) ([]Point, error) {
	xs, xok, err := c.Floats(x)
	if err != nil {
		return nil, err
	}
	ys, yok, err := c.Floats(y)
	if err != nil {
		return nil, err
	}
	var out []Point
	for i := range xs {
		if xok[i] && yok[i] {
			out = append(out, Point{xs[i], ys[i]})
		}
	}
	return out, nil
}

// LinearFit regresses y on x over complete pairs.
func LinearFit(c *schema.Canonical, x, y string) (Fit, error) {
	pts, err := Pairs(c, x, y)
	if err != nil {
		return Fit{}, err
	}
	if len(pts) == 0 {
		return Fit{X: x, Y: y}, fmt.Errorf("%w: no numeric pairs for %s ~ %s", ErrNotNumeric, y, x)
	}
	var pa pairAcc
	for _, p := range pts {
		pa.add(p.X, p.Y)
	}
	f := Fit{X: x, Y: y, N: len(pts)}
	f.Slope, f.Intercept, f.Defined = pa.ols()
	f.R, _ = pa.r()
	return f, nil
}
