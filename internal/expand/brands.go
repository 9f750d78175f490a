package expand

import "sort"

// TopBrands expands each query and returns up to n detected brands ordered by
// how often they were detected. Ties keep first-seen order.
func (e *Expander) TopBrands(queries []string, n int) []string {
	if n <= 0 {
		return nil
	}
	counts := make(map[string]int)
	var order []string
	for _, q := range queries {
		brand := e.Expand(q).Brand
		if brand == "" {
			continue
		}
		if counts[brand] == 0 {
			order = append(order, brand)
		}
		counts[brand]++
	}
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > n {
		order = order[:n]
	}
	return order
}
