package report

// smaOverlayPeriod is the window of the moving-average overlay drawn on
// price charts. Compact daily history carries ~100 bars, so 20 leaves a
// readable overlay even on short series.
const smaOverlayPeriod = 20

// rollingAverage computes the trailing simple moving average of values.
// The first period-1 entries have no full window and repeat the partial
// average, which keeps the overlay aligned with the price X axis.
func rollingAverage(values []float64, period int) []float64 {
	if period < 1 || len(values) == 0 {
		return nil
	}

	out := make([]float64, len(values))
	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= period {
			sum -= values[i-period]
			out[i] = sum / float64(period)
		} else {
			out[i] = sum / float64(i+1)
		}
	}
	return out
}
