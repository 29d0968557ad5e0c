package apitest

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/roach88/perfumery/internal/model"
)

// Seeded accounts. Every seeded account uses Password.
const (
	CustomerEmail       = "alice@example.com"
	ProductManagerEmail = "pm@example.com"
	SalesManagerEmail   = "sales@example.com"
	Password            = "secret"
)

type storedDiscount struct {
	id         string
	name       string
	rate       float64
	start, end time.Time
	perfumeIDs []string
	createdBy  string
}

func (d storedDiscount) activeAt(t time.Time) bool {
	return !t.Before(d.start) && !t.After(d.end)
}

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func variant(volume int, p string, stock int) model.PerfumeVariant {
	return model.PerfumeVariant{Volume: volume, BasePrice: price(p), Price: price(p), Stock: stock, Active: true}
}

// seed installs the default fixture:
//
//	p1 Creed Aventus      EDP male    50ml 89.90, 100ml 129.90
//	p2 YSL Libre          EDP female  30ml 45.00, 90ml 110.00 (10% "Spring" discount)
//	p3 Hermès Terre       EDT male    100ml 150.00, 200ml 210.00 inactive
func (s *Server) seed() {
	users := []struct {
		email, first, last string
		role               model.Role
	}{
		{CustomerEmail, "Alice", "Smith", model.RoleCustomer},
		{ProductManagerEmail, "Paul", "Mercer", model.RoleProductManager},
		{SalesManagerEmail, "Sara", "Lee", model.RoleSalesManager},
	}
	for _, u := range users {
		id := s.nextID("u")
		s.accounts[u.email] = &account{
			user: model.User{
				ID:        id,
				Email:     u.email,
				FirstName: u.first,
				LastName:  u.last,
				Age:       30,
				Gender:    model.GenderOther,
				Role:      u.role,
			},
			password: Password,
		}
	}

	woody := model.Category{ID: s.nextID("c"), Name: "Woody"}
	floral := model.Category{ID: s.nextID("c"), Name: "Floral"}
	s.categories = []model.Category{woody, floral}

	s.addPerfumeLocked(&model.Perfume{
		Name:        "Aventus",
		Brand:       "Creed",
		Type:        model.TypeEauDeParfum,
		Gender:      "male",
		Notes:       []string{"pineapple", "birch", "musk"},
		Categories:  []model.Category{woody},
		Distributor: model.PerfumeDistributor{Name: "Creed Boutique"},
		Variants:    []model.PerfumeVariant{variant(50, "89.90", 10), variant(100, "129.90", 5)},
	})
	s.addPerfumeLocked(&model.Perfume{
		Name:        "Libre",
		Brand:       "YSL",
		Type:        model.TypeEauDeParfum,
		Gender:      "female",
		Notes:       []string{"lavender", "orange blossom"},
		Categories:  []model.Category{floral},
		Distributor: model.PerfumeDistributor{Name: "L'Oréal Luxe"},
		Variants:    []model.PerfumeVariant{variant(30, "45.00", 20), variant(90, "110.00", 8)},
	})
	inactive := variant(200, "210.00", 0)
	inactive.Active = false
	s.addPerfumeLocked(&model.Perfume{
		Name:        "Terre d'Hermès",
		Brand:       "Hermès",
		Type:        model.TypeEauDeToilette,
		Gender:      "male",
		Notes:       []string{"orange", "vetiver"},
		Categories:  []model.Category{woody},
		Distributor: model.PerfumeDistributor{Name: "Hermès Parfums"},
		Variants:    []model.PerfumeVariant{variant(100, "150.00", 3), inactive},
	})

	s.discounts = []storedDiscount{{
		id:         s.nextID("d"),
		name:       "Spring",
		rate:       10,
		start:      Epoch.AddDate(0, 0, -1),
		end:        Epoch.AddDate(0, 0, 30),
		perfumeIDs: []string{"p2"},
		createdBy:  "u3",
	}}
}
