// Command seedtrades fills the database with synthetic option trades for
// development. It creates a demo user and one project per strategy family.
package main

import (
	"flag"
	"log"
	"math/rand"
	"time"

	"gorm.io/gorm"

	"github.com/ovchar/tradejournal/internal/config"
	"github.com/ovchar/tradejournal/internal/hash"
	"github.com/ovchar/tradejournal/internal/models"
)

var symbols = []string{"AAPL", "MSFT", "SPY", "TSLA", "NVDA", "AMD", "QQQ", "META"}

func main() {
	count := flag.Int("count", 50, "trades to generate per strategy")
	seed := flag.Int64("seed", time.Now().UnixNano(), "rng seed")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}
	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatal(err)
	}

	rng := rand.New(rand.NewSource(*seed))

	user, err := demoUser(db)
	if err != nil {
		log.Fatal(err)
	}

	strategies := map[string]func(*rand.Rand, uint, uint) []models.Trade{
		"covered_call": coveredCall,
		"vertical":     vertical,
		"iron_condor":  ironCondor,
	}

	for name, gen := range strategies {
		project := models.Project{
			UserID:      user.ID,
			Name:        name + " demo",
			Description: "synthetic " + name + " trades",
		}
		if err := db.Where("user_id = ? AND name = ?", user.ID, project.Name).
			FirstOrCreate(&project).Error; err != nil {
			log.Fatal(err)
		}

		var trades []models.Trade
		for i := 0; i < *count; i++ {
			trades = append(trades, gen(rng, user.ID, project.ID)...)
		}
		if err := db.Create(&trades).Error; err != nil {
			log.Fatal(err)
		}
		log.Printf("seeded %d rows into %q", len(trades), project.Name)
	}
}

func demoUser(db *gorm.DB) (*models.User, error) {
	pwHash, err := hash.HashPassword("Seeder42@demo")
	if err != nil {
		return nil, err
	}
	user := models.User{
		Username:     "demo",
		Email:        "demo@example.com",
		PasswordHash: pwHash,
	}
	if err := db.Where("username = ?", user.Username).FirstOrCreate(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func underlying(rng *rand.Rand) (string, float64) {
	sym := symbols[rng.Intn(len(symbols))]
	price := 50 + rng.Float64()*400
	return sym, price
}

func strike(price, offset float64) float64 {
	return float64(int((price+offset)/5)) * 5
}

// coveredCall: long stock assumed elsewhere, one short call above the money.
func coveredCall(rng *rand.Rand, userID, projectID uint) []models.Trade {
	sym, price := underlying(rng)
	opened := time.Now().AddDate(0, 0, -rng.Intn(90))
	expiry := opened.AddDate(0, 0, 30+rng.Intn(30))
	premium := price * (0.01 + rng.Float64()*0.02)

	return []models.Trade{{
		ProjectID:  projectID,
		UserID:     userID,
		Symbol:     sym,
		Strategy:   "covered_call",
		OptionType: "call",
		Strike:     strike(price, price*0.05),
		Expiry:     expiry,
		Quantity:   -1,
		OpenPrice:  premium,
		OpenedAt:   opened,
		Fees:       0.65,
		Notes:      "monthly income leg",
	}}
}

// vertical: defined-risk two-leg spread, same expiry, strikes 5 apart.
func vertical(rng *rand.Rand, userID, projectID uint) []models.Trade {
	sym, price := underlying(rng)
	opened := time.Now().AddDate(0, 0, -rng.Intn(90))
	expiry := opened.AddDate(0, 0, 14+rng.Intn(45))
	optType := "put"
	if rng.Intn(2) == 0 {
		optType = "call"
	}
	short := strike(price, -price*0.03)
	long := short - 5
	if optType == "call" {
		short = strike(price, price*0.03)
		long = short + 5
	}
	credit := 0.5 + rng.Float64()*1.5

	legs := []models.Trade{
		{
			ProjectID: projectID, UserID: userID, Symbol: sym,
			Strategy: "vertical", OptionType: optType,
			Strike: short, Expiry: expiry, Quantity: -1,
			OpenPrice: credit, OpenedAt: opened, Fees: 0.65,
		},
		{
			ProjectID: projectID, UserID: userID, Symbol: sym,
			Strategy: "vertical", OptionType: optType,
			Strike: long, Expiry: expiry, Quantity: 1,
			OpenPrice: credit * 0.4, OpenedAt: opened, Fees: 0.65,
		},
	}
	return legs
}

// ironCondor: four legs, short strangle wrapped in long wings.
func ironCondor(rng *rand.Rand, userID, projectID uint) []models.Trade {
	sym, price := underlying(rng)
	opened := time.Now().AddDate(0, 0, -rng.Intn(90))
	expiry := opened.AddDate(0, 0, 30+rng.Intn(30))

	shortPut := strike(price, -price*0.05)
	shortCall := strike(price, price*0.05)
	credit := 0.8 + rng.Float64()*1.2

	mk := func(optType string, strikePrice float64, qty int, prem float64) models.Trade {
		return models.Trade{
			ProjectID: projectID, UserID: userID, Symbol: sym,
			Strategy: "iron_condor", OptionType: optType,
			Strike: strikePrice, Expiry: expiry, Quantity: qty,
			OpenPrice: prem, OpenedAt: opened, Fees: 0.65,
		}
	}

	return []models.Trade{
		mk("put", shortPut-10, 1, credit*0.2),
		mk("put", shortPut, -1, credit),
		mk("call", shortCall, -1, credit),
		mk("call", shortCall+10, 1, credit*0.2),
	}
}
