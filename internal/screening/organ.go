package screening

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// KnownOrgans feeds the "did you mean" hint under the organ field.
var KnownOrgans = []string{
	"Adrenal", "Bladder", "Bone", "Bone marrow", "Brain", "Breast", "Cervix", "Colon",
	"Endometrium", "Esophagus", "Gallbladder", "Heart", "Kidney", "Larynx", "Liver", "Lung",
	"Lymph node", "Ovary", "Pancreas", "Prostate", "Rectum", "Skin", "Small intestine",
	"Soft tissue", "Spleen", "Stomach", "Testis", "Thyroid", "Tonsil", "Uterus",
}

const maxOrganDistance = 2

// SuggestOrgan returns the closest known organ when text looks like a typo of one.
// Exact matches (ignoring case) and blank input yield no suggestion.
func SuggestOrgan(text string, known []string) (string, bool) {
	in := strings.ToLower(strings.TrimSpace(text))
	if len(in) < 3 {
		return "", false
	}
	best, bestDist := "", maxOrganDistance+1
	for _, k := range known {
		lk := strings.ToLower(k)
		if lk == in {
			return "", false
		}
		if d := levenshtein.ComputeDistance(in, lk); d < bestDist {
			best, bestDist = k, d
		}
	}
	if best == "" {
		return "", false
	}
	return best, true
}
