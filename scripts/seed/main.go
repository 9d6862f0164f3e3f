// Command seed fills the directory with demo stores, staff, targets and a
// month of manually entered metrics.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/retail-cockpit/cockpit/internal/app"
	"github.com/retail-cockpit/cockpit/internal/directory"
	"github.com/retail-cockpit/cockpit/internal/platform/db"
)

type demoStore struct {
	id, name, area, city string
	target               float64
	staff                []string
}

var demoStores = []demoStore{
	{"S01", "Grand Indonesia", "Rina", "Jakarta", 450_000_000, []string{"4661-Ayu", "4662-Budi", "4663-Citra"}},
	{"S02", "Pakuwon Mall", "Rina", "Surabaya", 320_000_000, []string{"4701-Dewi", "4702-Eko"}},
	{"S03", "Paris Van Java", "Dedi", "Bandung", 280_000_000, []string{"4801-Fajar", "4802-Gita"}},
	{"S04", "Beachwalk", "Dedi", "Bali", 260_000_000, []string{"4901-Hadi"}},
}

func main() {
	year := flag.Int("year", time.Now().Year(), "year to seed targets and metrics for")
	month := flag.Int("month", int(time.Now().Month()), "month (1-12) to seed")
	flag.Parse()

	cfg, err := app.LoadConfig(".env")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	ctx := context.Background()
	pool, err := db.New(ctx, cfg.PGDSN, db.WithApplicationName("cockpit-seed"))
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	repo := directory.NewRepository(pool)
	if err := repo.EnsureSchema(ctx); err != nil {
		log.Fatalf("ensure schema: %v", err)
	}
	svc := directory.NewService(repo, nil)

	fmt.Println("→ Seeding stores and staff...")
	for _, s := range demoStores {
		if err := seedStore(ctx, svc, s, *year, *month); err != nil {
			log.Fatalf("seed %s: %v", s.name, err)
		}
	}

	fmt.Println("→ Seeding daily metrics...")
	rows, err := seedMetrics(ctx, svc, *year, *month)
	if err != nil {
		log.Fatalf("seed metrics: %v", err)
	}
	fmt.Printf("✓ Seeded %d stores and %d metric rows for %04d-%02d\n", len(demoStores), rows, *year, *month)
}

func seedStore(ctx context.Context, svc *directory.Service, s demoStore, year, month int) error {
	if err := svc.UpsertStore(ctx, directory.StoreInput{ID: s.id, Name: s.name, AreaManager: s.area, City: s.city}); err != nil {
		return err
	}
	if err := svc.SetStoreTarget(ctx, s.id, year, month, s.target); err != nil {
		return err
	}
	share := s.target / float64(len(s.staff))
	for _, staff := range s.staff {
		id, name := splitStaff(staff)
		if err := svc.UpsertEmployee(ctx, directory.EmployeeInput{
			ID:           id,
			Name:         name,
			CurrentStore: s.name,
			Status:       "active",
			EmployeeID:   id,
		}); err != nil {
			return err
		}
		if err := svc.SetEmployeeTarget(ctx, id, false, year, month, share); err != nil {
			return err
		}
		if err := svc.SetEmployeeTarget(ctx, id, true, year, month, 10); err != nil {
			return err
		}
	}
	return nil
}

func seedMetrics(ctx context.Context, svc *directory.Service, year, month int) (int, error) {
	days := time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
	count := 0
	for i, s := range demoStores {
		for d := 1; d <= days; d++ {
			for j, staff := range s.staff {
				id, name := splitStaff(staff)
				tx := 4 + (d+j)%5
				if _, err := svc.RecordMetric(ctx, directory.MetricInput{
					Date:             time.Date(year, time.Month(month), d, 0, 0, 0, 0, time.UTC),
					Store:            s.name,
					Employee:         name,
					EmployeeID:       id,
					TotalSales:       float64(tx) * float64(1_800_000+150_000*((d*7+i)%9)),
					TransactionCount: tx,
				}); err != nil {
					return count, err
				}
				count++
			}
			if _, err := svc.RecordMetric(ctx, directory.MetricInput{
				Date:     time.Date(year, time.Month(month), d, 0, 0, 0, 0, time.UTC),
				Store:    s.name,
				Visitors: 60 + (d*13+i*5)%50,
			}); err != nil {
				return count, err
			}
			count++
		}
	}
	return count, nil
}

// splitStaff splits "4661-Ayu" into id and name.
func splitStaff(s string) (string, string) {
	id, name, ok := strings.Cut(s, "-")
	if !ok {
		return s, s
	}
	return id, name
}
