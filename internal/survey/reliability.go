package survey

// CronbachAlpha computes Cronbach's alpha for a matrix of item
// responses shaped [nRespondents][nItems]. Variances are population
// variances (divide by N) throughout, which yields alpha=1.0 for
// perfectly correlated items. Degenerate inputs (no respondents, fewer
// than two items, ragged rows, zero total variance) return 0; the
// result is clamped to [0, 1].
func CronbachAlpha(matrix [][]float64) float64 {
	n := len(matrix)
	if n == 0 {
		return 0
	}
	k := len(matrix[0])
	if k < 2 {
		return 0
	}

	itemVars := make([]float64, k)
	totals := make([]float64, n)
	means := make([]float64, k)
	for i := 0; i < n; i++ {
		row := matrix[i]
		if len(row) != k {
			return 0
		}
		for j := 0; j < k; j++ {
			means[j] += row[j]
			totals[i] += row[j]
		}
	}
	for j := 0; j < k; j++ {
		means[j] /= float64(n)
	}

	for j := 0; j < k; j++ {
		var sum float64
		for i := 0; i < n; i++ {
			d := matrix[i][j] - means[j]
			sum += d * d
		}
		itemVars[j] = sum / float64(n)
	}

	var totalMean float64
	for i := 0; i < n; i++ {
		totalMean += totals[i]
	}
	totalMean /= float64(n)
	var totalVar float64
	for i := 0; i < n; i++ {
		d := totals[i] - totalMean
		totalVar += d * d
	}
	totalVar /= float64(n)

	if totalVar == 0 {
		return 0
	}
	var sumItemVars float64
	for _, v := range itemVars {
		sumItemVars += v
	}

	kf := float64(k)
	alpha := (kf / (kf - 1.0)) * (1.0 - (sumItemVars / totalVar))
	if alpha < 0 {
		return 0
	}
	if alpha > 1 {
		return 1
	}
	return alpha
}

// AlphaMatrix builds the complete-case respondent×item matrix for a
// battery of Likert columns. itemCells[j] holds every respondent's cell
// for item j; respondents with any malformed cell are dropped. Reverse
// flags apply reverse scoring per item before the matrix is built.
func AlphaMatrix(itemCells [][]string, reverse []bool) [][]float64 {
	if len(itemCells) == 0 {
		return nil
	}
	respondents := len(itemCells[0])
	var matrix [][]float64
	for i := 0; i < respondents; i++ {
		row := make([]float64, 0, len(itemCells))
		complete := true
		for j, cells := range itemCells {
			if i >= len(cells) {
				complete = false
				break
			}
			v, ok := ParseLikert(cells[i])
			if !ok {
				complete = false
				break
			}
			if j < len(reverse) && reverse[j] {
				v = ReverseScore(v, LikertPoints)
			}
			row = append(row, float64(v))
		}
		if complete {
			matrix = append(matrix, row)
		}
	}
	return matrix
}
