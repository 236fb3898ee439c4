package detector

import "math"

// mean — среднее арифметическое; 0 для пустого среза.
func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// stdDev — выборочное стандартное отклонение (n−1).
// Для выборки меньше двух значений отклонение не определено и равно 0;
// детекторы трактуют это как «аномалия не обнаружима», а не как ошибку.
func stdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := mean(xs)
	sum := 0.0
	for _, x := range xs {
		d := x - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(xs)-1))
}
