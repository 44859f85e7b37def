package catalog

// CreditPack is a purchasable bundle of credits.
type CreditPack struct {
	ID       string
	Name     string
	Stars    int   // upstream star/price units
	Credits  int64 // credits received
	BonusPct int   // bonus percentage, display only
}

var creditPacks = map[string]CreditPack{
	"starter":  {ID: "starter", Name: "Starter", Stars: 50, Credits: 50, BonusPct: 0},
	"basic":    {ID: "basic", Name: "Basic", Stars: 150, Credits: 165, BonusPct: 10},
	"standard": {ID: "standard", Name: "Standard", Stars: 500, Credits: 600, BonusPct: 20},
	"bulk":     {ID: "bulk", Name: "Bulk", Stars: 1500, Credits: 2000, BonusPct: 33},
}

// Pack returns a credit pack by id.
func Pack(id string) (CreditPack, bool) {
	p, ok := creditPacks[id]
	return p, ok
}

// Packs returns all purchasable packs.
func Packs() []CreditPack {
	out := make([]CreditPack, 0, len(creditPacks))
	for _, p := range creditPacks {
		out = append(out, p)
	}
	return out
}
