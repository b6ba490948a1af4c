package bechdel

import "fmt"

// Rating is a heuristic Bechdel score, 0 to 3 like bechdeltest.com.
type Rating struct {
	Value  int    `json:"value"`
	Reason string `json:"reason"`
	// Exchange is the index of the deciding dialogue block, or -1.
	Exchange int `json:"exchange"`
}

// Score rates a report:
//
//	1: at least two named women
//	2: two of them are named in the same dialogue block
//	3: one such block has no male reference
func Score(r *Report) Rating {
	women := make(map[string]bool)
	for _, c := range r.Women() {
		women[c.Name] = true
	}
	if len(women) < 2 {
		return Rating{Value: 0, Reason: fmt.Sprintf("%d named women", len(women)), Exchange: -1}
	}
	best := Rating{Value: 1, Reason: fmt.Sprintf("%d named women never share a dialogue block", len(women)), Exchange: -1}
	for i, ex := range r.Exchanges {
		var present []string
		for _, name := range ex.Characters {
			if women[name] {
				present = append(present, name)
			}
		}
		if len(present) < 2 {
			continue
		}
		if !ex.MentionsMan {
			return Rating{Value: 3, Reason: fmt.Sprintf("%s and %s talk without referring to a man", present[0], present[1]), Exchange: i}
		}
		if best.Value < 2 {
			best = Rating{Value: 2, Reason: fmt.Sprintf("%s and %s talk, but about a man", present[0], present[1]), Exchange: i}
		}
	}
	return best
}
