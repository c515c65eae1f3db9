package series

// MaxMinIndexes finds alternating local extrema in ts, maxima first:
// len(maxs) == len(mins) and maxs[i] < mins[i] for every i.
//
// The plateau handling is asymmetric on purpose: a tie extends a maximum
// run (the candidate keeps moving right), while a committed minimum only
// moves on a strict drop. Changing this alters which index is picked under
// price plateaus and breaks deal-search results.
func MaxMinIndexes(ts []float64) (maxs, mins []int) {
	prevMin, prevMax := 0, 0
	for i := 1; i < len(ts); i++ {
		if len(mins) == len(maxs) {
			// tracking a maximum run
			if ts[i] >= ts[prevMax] {
				prevMax = i
				continue
			}
			maxs = append(maxs, prevMax)
			prevMin = i
		} else {
			// tracking a minimum run
			if ts[i] <= ts[prevMin] {
				if ts[i] < ts[prevMin] {
					prevMin = i
				}
				continue
			}
			mins = append(mins, prevMin)
			prevMax = i
		}
	}
	if len(mins) != len(maxs) {
		if maxs[len(maxs)-1] != prevMin {
			mins = append(mins, prevMin)
		} else {
			maxs = maxs[:len(maxs)-1]
		}
	}
	return maxs, mins
}

// MinMaxIndexes is the mirror of MaxMinIndexes, minima first:
// len(mins) == len(maxs) and mins[i] < maxs[i] for every i.
func MinMaxIndexes(ts []float64) (mins, maxs []int) {
	prevMin, prevMax := 0, 0
	for i := 1; i < len(ts); i++ {
		if len(mins) == len(maxs) {
			// tracking a minimum run
			if ts[i] <= ts[prevMin] {
				prevMin = i
				continue
			}
			mins = append(mins, prevMin)
			prevMax = i
		} else {
			// tracking a maximum run
			if ts[i] >= ts[prevMax] {
				if ts[i] > ts[prevMax] {
					prevMax = i
				}
				continue
			}
			maxs = append(maxs, prevMax)
			prevMin = i
		}
	}
	if len(mins) != len(maxs) {
		if mins[len(mins)-1] != prevMax {
			maxs = append(maxs, prevMax)
		} else {
			mins = mins[:len(mins)-1]
		}
	}
	return mins, maxs
}
