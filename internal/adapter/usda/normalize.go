package usda

import (
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"nourish/internal/domain"
)

type searchResponse struct {
	Foods []food `json:"foods"`
}

// food covers both the search hit and the detail document. The two
// endpoints report nutrients in different shapes.
type food struct {
	FDCID          int64                    `json:"fdcId"`
	Description    string                   `json:"description"`
	BrandOwner     string                   `json:"brandOwner"`
	BrandName      string                   `json:"brandName"`
	FoodNutrients  []nutrient               `json:"foodNutrients"`
	LabelNutrients map[string]labelNutrient `json:"labelNutrients"`
}

type labelNutrient struct {
	Value *float64 `json:"value"`
}

type nutrient struct {
	// search shape
	NutrientName string  `json:"nutrientName"`
	UnitName     string  `json:"unitName"`
	Value        float64 `json:"value"`
	// detail shape
	Nutrient *struct {
		Name     string `json:"name"`
		UnitName string `json:"unitName"`
	} `json:"nutrient"`
	Amount *float64 `json:"amount"`
}

func (n nutrient) name() string {
	if n.Nutrient != nil {
		return n.Nutrient.Name
	}
	return n.NutrientName
}

func (n nutrient) unit() string {
	if n.Nutrient != nil {
		return n.Nutrient.UnitName
	}
	return n.UnitName
}

func (n nutrient) amount() float64 {
	if n.Amount != nil {
		return *n.Amount
	}
	return n.Value
}

// lookup returns the label value for key when present and positive, else the
// first nutrient whose name contains match. Energy reported in kJ is skipped.
func (f food) lookup(key, match string) (float64, bool) {
	if l, ok := f.LabelNutrients[key]; ok && l.Value != nil && *l.Value > 0 {
		return *l.Value, true
	}
	match = strings.ToLower(match)
	for _, n := range f.FoodNutrients {
		if !strings.Contains(strings.ToLower(n.name()), match) {
			continue
		}
		if match == "energy" && strings.EqualFold(n.unit(), "kJ") {
			continue
		}
		return n.amount(), true
	}
	return 0, false
}

func (f food) value(key, match string) float64 {
	v, _ := f.lookup(key, match)
	return v
}

func (f food) optional(key, match string) *float64 {
	if v, ok := f.lookup(key, match); ok {
		return &v
	}
	return nil
}

func (f food) normalize() domain.ExternalFood {
	out := domain.ExternalFood{
		Name: cases.Title(language.English).String(strings.TrimSpace(f.Description)),
		Nutrients: domain.Nutrients{
			Calories: f.value("calories", "Energy"),
			Protein:  f.value("protein", "Protein"),
			Carbs:    f.value("carbohydrates", "Carbohydrate"),
			Fat:      f.value("fat", "Total lipid"),
			Fiber:    f.value("fiber", "Fiber"),
		},
		Sugar:  f.optional("sugars", "Sugars"),
		Sodium: f.optional("sodium", "Sodium"),
	}
	if out.Name == "" {
		out.Name = "Unknown"
	}
	if f.FDCID != 0 {
		out.ExternalID = strconv.FormatInt(f.FDCID, 10)
	}
	brand := strings.TrimSpace(f.BrandOwner)
	if brand == "" {
		brand = strings.TrimSpace(f.BrandName)
	}
	if brand != "" {
		out.Brand = &brand
	}
	return out
}
