package common

import "sort"

// FindPeaks returns the indices of local maxima in data.
//
// A peak is a sample strictly greater than its left neighbour and strictly
// greater than the first differing sample to its right. Flat plateaus report
// their middle index (rounded down). The first and last samples are never
// peaks.
//
// When minDistance > 1, peaks closer than minDistance samples to a higher
// peak are discarded. Higher peaks are kept first; for equal heights the
// later peak wins.
func FindPeaks(data []float64, minDistance int) []int {
	peaks := localMaxima(data)
	if minDistance > 1 && len(peaks) > 1 {
		peaks = selectByDistance(data, peaks, minDistance)
	}
	return peaks
}

func localMaxima(data []float64) []int {
	peaks := []int{}
	n := len(data)
	i := 1
	for i < n-1 {
		if data[i-1] < data[i] {
			ahead := i + 1
			for ahead < n-1 && data[ahead] == data[i] {
				ahead++
			}
			if data[ahead] < data[i] {
				left, right := i, ahead-1
				peaks = append(peaks, (left+right)/2)
				i = ahead
				continue
			}
		}
		i++
	}
	return peaks
}

func selectByDistance(data []float64, peaks []int, minDistance int) []int {
	order := make([]int, len(peaks))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return data[peaks[order[a]]] < data[peaks[order[b]]]
	})

	keep := make([]bool, len(peaks))
	for i := range keep {
		keep[i] = true
	}

	for i := len(order) - 1; i >= 0; i-- {
		j := order[i]
		if !keep[j] {
			continue
		}
		for k := j - 1; k >= 0 && peaks[j]-peaks[k] < minDistance; k-- {
			keep[k] = false
		}
		for k := j + 1; k < len(peaks) && peaks[k]-peaks[j] < minDistance; k++ {
			keep[k] = false
		}
	}

	selected := make([]int, 0, len(peaks))
	for i, p := range peaks {
		if keep[i] {
			selected = append(selected, p)
		}
	}
	return selected
}
