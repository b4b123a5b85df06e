// ==============================================================================
// DEVELOPMENT DATA SEEDER - cmd/seed/main.go
// ==============================================================================
// Seeds a development database with synthetic clients, balances and six
// months of trade history, including the planted patterns the surveillance
// rules are meant to catch.
package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"

	"brokerkyc/internal/domain"
	"brokerkyc/internal/repository/postgres"
	"brokerkyc/pkg/config"
)

const clientCount = 40

var firstNames = []string{
	"ASHA", "RAHUL", "PRIYA", "VIKRAM", "NEHA", "ARJUN", "KAVITA", "SANJAY",
	"MEERA", "ROHIT", "ANITA", "DEEPAK", "SUNITA", "MANOJ", "POOJA", "AMIT",
	"REKHA", "SURESH", "DIVYA", "RAJESH",
}

var lastNames = []string{
	"PATEL", "SHARMA", "VERMA", "IYER", "REDDY", "NAIR", "GUPTA", "SINGH",
	"KULKARNI", "JOSHI", "MEHTA", "DESAI", "RAO", "CHOPRA", "BOSE", "DAS",
	"KAPOOR", "MALHOTRA", "PILLAI", "SAXENA",
}

var stocks = []struct {
	symbol string
	price  string
}{
	{"RELIANCE", "2500"}, {"TCS", "3400"}, {"INFY", "1800"}, {"HDFCBANK", "1650"},
	{"BAJAJFINSV", "1600"}, {"YESBANK", "15.50"}, {"SUZLON", "8.75"},
	{"GTLINFRA", "1.25"}, {"RCOM", "2.10"}, {"IDEA", "7.00"},
}

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	rng := rand.New(rand.NewSource(42))
	now := time.Now().UTC()

	store := postgres.NewStore(db)
	tradeRepo := postgres.NewTradeRepository(db)
	marginRepo := postgres.NewMarginRepository(db)

	marginRate := decimal.RequireFromString(cfg.Compliance.MarginRate)

	log.Printf("Seeding %d clients...", clientCount)
	for i := 0; i < clientCount; i++ {
		clientID := fmt.Sprintf("CL%d", 1001+i)
		name := firstNames[rng.Intn(len(firstNames))] + " " + lastNames[rng.Intn(len(lastNames))]

		lastUpdated := now.AddDate(0, 0, -rng.Intn(domain.KYCValidityDays))
		// A handful of clients land inside the renewal notice window.
		if i%10 == 3 {
			lastUpdated = now.AddDate(0, 0, -(domain.KYCValidityDays - 5 - rng.Intn(25)))
		}

		pan := randomPAN(rng)
		profile := domain.ClientProfile{
			ClientID:        clientID,
			FullName:        name,
			PANNumber:       pan,
			PANNumberMasked: domain.MaskPAN(pan),
			DateOfBirth:     fmt.Sprintf("%02d/%02d/%d", 1+rng.Intn(28), 1+rng.Intn(12), 1960+rng.Intn(40)),
			Address:         fmt.Sprintf("Address: %d, Market Road, Mumbai 4000%02d", 1+rng.Intn(200), rng.Intn(100)),
			KYCLastUpdated:  lastUpdated,
			KYCExpiryDate:   lastUpdated.AddDate(0, 0, domain.KYCValidityDays),
			RiskCategory:    domain.DefaultRiskCategory,
		}
		opening := domain.Balance{
			ClientID:    clientID,
			Amount:      decimal.NewFromInt(int64(5000 + rng.Intn(495000))),
			LastUpdated: now,
		}

		if err := store.OnboardBatch(ctx, &profile, &opening); err != nil {
			log.Fatalf("Failed to seed client %s: %v", clientID, err)
		}
	}

	log.Println("Seeding 180 days of trades...")
	var trades []domain.Trade
	seq := 0
	nextID := func() string {
		seq++
		return fmt.Sprintf("TRD%05d", seq)
	}

	for day := 180; day >= 1; day-- {
		tradeDate := now.AddDate(0, 0, -day)
		// Clients CL1036..CL1040 never trade, so their balances go idle.
		for i := 0; i < 10+rng.Intn(20); i++ {
			client := fmt.Sprintf("CL%d", 1001+rng.Intn(clientCount-5))
			stock := stocks[rng.Intn(5)]
			side := domain.TradeBuy
			if rng.Intn(2) == 1 {
				side = domain.TradeSell
			}
			trades = append(trades, domain.Trade{
				TradeID:       nextID(),
				ClientID:      client,
				StockSymbol:   stock.symbol,
				TradeType:     side,
				Quantity:      int64(10 + rng.Intn(150)),
				PricePerShare: decimal.RequireFromString(stock.price),
				TradeDate:     tradeDate.Add(time.Duration(rng.Intn(8)) * time.Hour),
			})
		}
	}

	// Planted patterns, all booked today so one surveillance run finds them.
	today := now
	plant := func(client, symbol string, side domain.TradeType, qty int64, price string) {
		trades = append(trades, domain.Trade{
			TradeID:       nextID(),
			ClientID:      client,
			StockSymbol:   symbol,
			TradeType:     side,
			Quantity:      qty,
			PricePerShare: decimal.RequireFromString(price),
			TradeDate:     today,
		})
	}

	// Large trade value: 300 * 1800 = 540,000.
	plant("CL1007", "INFY", domain.TradeSell, 300, "1800")
	// Penny stock volume.
	plant("CL1015", "SUZLON", domain.TradeBuy, 150000, "8.75")
	// High frequency: 55 trades in one stock.
	for i := 0; i < 55; i++ {
		plant("CL1002", "YESBANK", domain.TradeBuy, 1000, "15.50")
	}
	// Wash trading: 15 matched buy/sell pairs.
	for i := 0; i < 15; i++ {
		plant("CL1025", "GTLINFRA", domain.TradeBuy, 5000, "1.25")
		plant("CL1025", "GTLINFRA", domain.TradeSell, 5000, "1.25")
	}
	// Circular trading: three clients rotating the same stock.
	plant("CL1031", "RCOM", domain.TradeSell, 10000, "2.10")
	plant("CL1032", "RCOM", domain.TradeSell, 10000, "2.10")
	plant("CL1033", "RCOM", domain.TradeSell, 10000, "2.10")
	// Loss booking: buy at 1600, sell at 1500.
	plant("CL1021", "BAJAJFINSV", domain.TradeBuy, 100, "1600")
	plant("CL1021", "BAJAJFINSV", domain.TradeSell, 100, "1500")

	if err := tradeRepo.InsertBatch(ctx, trades); err != nil {
		log.Fatalf("Failed to seed trades: %v", err)
	}

	log.Println("Recording collected margins...")
	for _, t := range trades {
		required := t.Value().Mul(marginRate)
		collected := required
		// Roughly one trade in eight is under-margined.
		if rng.Intn(8) == 0 {
			collected = required.Mul(decimal.RequireFromString("0.6")).Round(2)
		}
		if err := marginRepo.Record(ctx, t.TradeID, collected); err != nil {
			log.Fatalf("Failed to record margin for %s: %v", t.TradeID, err)
		}
	}

	log.Printf("Done: %d clients, %d trades", clientCount, len(trades))
}

func randomPAN(rng *rand.Rand) string {
	letters := "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	b := make([]byte, 0, 10)
	for i := 0; i < 5; i++ {
		b = append(b, letters[rng.Intn(26)])
	}
	for i := 0; i < 4; i++ {
		b = append(b, byte('0'+rng.Intn(10)))
	}
	b = append(b, letters[rng.Intn(26)])
	return string(b)
}
