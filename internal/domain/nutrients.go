package domain

import "math"

// CatalogBaseGrams is the quantity catalog food nutrient values are expressed for.
const CatalogBaseGrams = 100.0

// Nutrients holds absolute amounts of the tracked nutrients.
type Nutrients struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
	Fiber    float64 `json:"fiber"`
}

// Scale returns base multiplied by targetQuantity/baseQuantity.
// Callers guarantee baseQuantity > 0.
func Scale(base Nutrients, baseQuantity, targetQuantity float64) Nutrients {
	f := targetQuantity / baseQuantity
	return Nutrients{
		Calories: base.Calories * f,
		Protein:  base.Protein * f,
		Carbs:    base.Carbs * f,
		Fat:      base.Fat * f,
		Fiber:    base.Fiber * f,
	}
}

// Add returns the fieldwise sum of n and o.
func (n Nutrients) Add(o Nutrients) Nutrients {
	return Nutrients{
		Calories: n.Calories + o.Calories,
		Protein:  n.Protein + o.Protein,
		Carbs:    n.Carbs + o.Carbs,
		Fat:      n.Fat + o.Fat,
		Fiber:    n.Fiber + o.Fiber,
	}
}

// Rounded returns n with every field rounded to one decimal place.
func (n Nutrients) Rounded() Nutrients {
	return Nutrients{
		Calories: Round1(n.Calories),
		Protein:  Round1(n.Protein),
		Carbs:    Round1(n.Carbs),
		Fat:      Round1(n.Fat),
		Fiber:    Round1(n.Fiber),
	}
}

// Aggregate sums nutrient sets fieldwise. An empty input yields the zero value.
func Aggregate(sets ...Nutrients) Nutrients {
	var total Nutrients
	for _, s := range sets {
		total = total.Add(s)
	}
	return total
}

// MacroCalories estimates energy from macronutrients at 4/4/9 kcal per gram.
func MacroCalories(protein, carbs, fat float64) float64 {
	return protein*4 + carbs*4 + fat*9
}

// NutrientKind identifies one tracked nutrient.
type NutrientKind int

const (
	Calories NutrientKind = iota
	Protein
	Carbs
	Fat
	Fiber
)

// NutrientKinds lists every kind in presentation order.
var NutrientKinds = []NutrientKind{Calories, Protein, Carbs, Fat, Fiber}

var nutrientNames = [...]string{
	Calories: "calories",
	Protein:  "protein",
	Carbs:    "carbs",
	Fat:      "fat",
	Fiber:    "fiber",
}

func (k NutrientKind) String() string {
	if k < 0 || int(k) >= len(nutrientNames) {
		return "unknown"
	}
	return nutrientNames[k]
}

// Of returns the amount of kind k in n.
func (k NutrientKind) Of(n Nutrients) float64 {
	switch k {
	case Calories:
		return n.Calories
	case Protein:
		return n.Protein
	case Carbs:
		return n.Carbs
	case Fat:
		return n.Fat
	case Fiber:
		return n.Fiber
	}
	return 0
}

// Goals are a user's daily nutrient targets.
type Goals struct {
	Calories float64 `json:"daily_calories"`
	Protein  float64 `json:"daily_protein"`
	Carbs    float64 `json:"daily_carbs"`
	Fat      float64 `json:"daily_fat"`
	Fiber    float64 `json:"daily_fiber"`
}

// DefaultGoals are assigned to accounts that do not supply their own.
func DefaultGoals() Goals {
	return Goals{Calories: 2000, Protein: 50, Carbs: 275, Fat: 78, Fiber: 28}
}

// For returns the goal for kind k.
func (g Goals) For(k NutrientKind) float64 {
	return k.Of(Nutrients(g))
}

// Percent returns consumed as a percentage of goal rounded to one decimal.
// A non-positive goal yields 0.
func Percent(consumed, goal float64) float64 {
	if goal <= 0 {
		return 0
	}
	return Round1(consumed / goal * 100)
}

// Round1 rounds v to one decimal place.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
