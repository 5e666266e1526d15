// Package billing считает стоимость подписки при приёме заявки.
//
// Все суммы хранятся в центах. Рассчитанные значения сохраняются в подписке
// и счёте и больше не пересчитываются, поэтому изменение каталога не влияет
// на уже созданные подписки.
package billing

import (
	"errors"
	"fmt"
	"math"

	"github.com/cvmanager/cvmanager/internal/models"
)

// DefaultTaxRate - ставка налога для счетов (16%).
const DefaultTaxRate = 0.16

// ErrUnknownPlan возвращается для тарифа, которого нет в каталоге.
var ErrUnknownPlan = errors.New("unknown plan")

// Catalog - таблица цен и ставка налога. Значение читается только после старта.
type Catalog struct {
	Prices   map[models.Plan]int64
	TaxRate  float64
	Currency string
}

// DefaultCatalog возвращает каталог с базовыми ценами тарифов.
func DefaultCatalog() Catalog {
	return Catalog{
		Prices: map[models.Plan]int64{
			models.PlanBasico:      50000,
			models.PlanProfesional: 100000,
			models.PlanEmpresarial: 200000,
		},
		TaxRate:  DefaultTaxRate,
		Currency: "MXN",
	}
}

// Quote - рассчитанная стоимость подписки.
type Quote struct {
	Plan      models.Plan
	BasePrice int64
	Tax       int64
	Total     int64
}

// Price возвращает базовую цену тарифа.
func (c Catalog) Price(plan models.Plan) (int64, error) {
	price, ok := c.Prices[plan]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownPlan, plan)
	}
	return price, nil
}

// Quote считает total = base + (requiresInvoice ? base*taxRate : 0).
// Налог округляется до цента.
func (c Catalog) Quote(plan models.Plan, requiresInvoice bool) (Quote, error) {
	base, err := c.Price(plan)
	if err != nil {
		return Quote{}, err
	}
	var tax int64
	if requiresInvoice {
		tax = int64(math.Round(float64(base) * c.TaxRate))
	}
	return Quote{
		Plan:      plan,
		BasePrice: base,
		Tax:       tax,
		Total:     base + tax,
	}, nil
}

// FormatAmount форматирует сумму в центах как "1160.00".
func FormatAmount(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
