package service_test

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/cucumber/godog"
	"github.com/niksmo/checkout/internal/adapter/memory"
	"github.com/niksmo/checkout/internal/core/checkout"
	"github.com/niksmo/checkout/internal/core/domain"
	"github.com/niksmo/checkout/internal/core/service"
	"github.com/shopspring/decimal"
)

type checkoutTestContext struct {
	products   []domain.Product
	customers  *memory.CustomerStore
	service    *service.Service
	customerID string
	result     domain.CheckoutResult
	err        error
}

func (c *checkoutTestContext) reset() {
	*c = checkoutTestContext{}
}

func (c *checkoutTestContext) theCatalog(table *godog.Table) error {
	if len(table.Rows) < 2 {
		return errors.New("catalog table has no products")
	}
	for _, row := range table.Rows[1:] {
		cell := func(i int) string { return row.Cells[i].Value }

		price, err := decimal.NewFromString(cell(2))
		if err != nil {
			return err
		}
		stock, err := strconv.Atoi(cell(3))
		if err != nil {
			return err
		}

		p := domain.Product{
			ID: cell(0), Name: cell(1), Price: price, Quantity: stock,
		}
		if days := cell(4); days != "" {
			n, err := strconv.Atoi(days)
			if err != nil {
				return err
			}
			at := now.Add(time.Duration(n) * 24 * time.Hour)
			p.IsExpirable, p.ExpirationDate = true, &at
		}
		if weight := cell(5); weight != "" {
			w, err := decimal.NewFromString(weight)
			if err != nil {
				return err
			}
			p.IsShippable, p.Weight = true, &w
		}
		p.Category, _ = domain.CategoryOf(p.IsExpirable, p.IsShippable)
		c.products = append(c.products, p)
	}
	return nil
}

func (c *checkoutTestContext) aCustomerWithBalance(id, balance string) error {
	b, err := decimal.NewFromString(balance)
	if err != nil {
		return err
	}

	catalog, err := memory.NewCatalog(c.products)
	if err != nil {
		return err
	}

	clock := func() time.Time { return now }
	c.customerID = id
	c.customers = memory.NewCustomerStore(domain.Customer{ID: id, Balance: b})
	c.service = service.New(
		catalog, c.customers, memory.NewCartStore(),
		checkout.New(checkout.ClockOpt(clock)),
		service.ClockOpt(clock),
	)
	return nil
}

func (c *checkoutTestContext) theCustomerAddsToTheCart(
	ctx context.Context, quantity int, name string,
) error {
	for _, p := range c.products {
		if p.Name == name {
			_, c.err = c.service.AddToCart(ctx, c.customerID, p.ID, quantity)
			return nil
		}
	}
	return fmt.Errorf("no product named %q", name)
}

func (c *checkoutTestContext) theCustomerChecksOut(ctx context.Context) error {
	c.result, c.err = c.service.Checkout(ctx, c.customerID)
	return nil
}

func (c *checkoutTestContext) theCheckoutSucceeds() error {
	if c.err != nil {
		return fmt.Errorf("expected success, got %v", c.err)
	}
	if !c.result.Success || c.result.Receipt == nil {
		return errors.New("expected successful result with receipt")
	}
	return nil
}

func (c *checkoutTestContext) theCheckoutFailsWith(message string) error {
	if c.err == nil {
		return errors.New("expected checkout to fail")
	}
	if c.result.Success {
		return errors.New("failed checkout reported success")
	}
	if c.result.Message != message {
		return fmt.Errorf("expected message %q, got %q", message, c.result.Message)
	}
	return nil
}

func (c *checkoutTestContext) theCartOperationFailsWith(message string) error {
	var perr *domain.ProductError
	if !errors.As(c.err, &perr) {
		return fmt.Errorf("expected product error, got %v", c.err)
	}
	if perr.Error() != message {
		return fmt.Errorf("expected message %q, got %q", message, perr.Error())
	}
	return nil
}

func (c *checkoutTestContext) theReceiptShows(subtotal, shipping, total string) error {
	r := c.result.Receipt
	if r == nil {
		return errors.New("no receipt")
	}
	for _, v := range []struct {
		name      string
		got, want string
	}{
		{"subtotal", r.Subtotal.String(), subtotal},
		{"shipping", r.Shipping.String(), shipping},
		{"total", r.Total.String(), total},
	} {
		if !decimal.RequireFromString(v.got).Equal(decimal.RequireFromString(v.want)) {
			return fmt.Errorf("expected %s %s, got %s", v.name, v.want, v.got)
		}
	}
	return nil
}

func (c *checkoutTestContext) theShipmentNoticeWeighs(kg string) error {
	n := c.result.ShipmentNotice
	if n == nil {
		return errors.New("no shipment notice")
	}
	if !n.TotalWeight.Equal(decimal.RequireFromString(kg)) {
		return fmt.Errorf("expected %skg, got %skg", kg, n.TotalWeight)
	}
	return nil
}

func (c *checkoutTestContext) theCustomerBalanceIs(
	ctx context.Context, balance string,
) error {
	customer, err := c.customers.LoadCustomer(ctx, c.customerID)
	if err != nil {
		return err
	}
	if got := customer.Balance.StringFixed(2); got != balance {
		return fmt.Errorf("expected balance %s, got %s", balance, got)
	}
	return nil
}

func (c *checkoutTestContext) theCartHoldsLines(ctx context.Context, n int) error {
	summary, err := c.service.Cart(ctx, c.customerID)
	if err != nil {
		return err
	}
	if len(summary.Items) != n {
		return fmt.Errorf("expected %d cart lines, got %d", n, len(summary.Items))
	}
	return nil
}

func (c *checkoutTestContext) theCartIsEmpty(ctx context.Context) error {
	return c.theCartHoldsLines(ctx, 0)
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	tc := &checkoutTestContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		tc.reset()
		return ctx, nil
	})

	// Given steps
	ctx.Step(`^the catalog:$`, tc.theCatalog)
	ctx.Step(`^a customer "([^"]*)" with balance (\d+(?:\.\d+)?)$`, tc.aCustomerWithBalance)

	// When steps
	ctx.Step(`^the customer adds (\d+) of "([^"]*)" to the cart$`, tc.theCustomerAddsToTheCart)
	ctx.Step(`^the customer checks out$`, tc.theCustomerChecksOut)

	// Then steps
	ctx.Step(`^the checkout succeeds$`, tc.theCheckoutSucceeds)
	ctx.Step(`^the checkout fails with "([^"]*)"$`, tc.theCheckoutFailsWith)
	ctx.Step(`^the cart operation fails with "([^"]*)"$`, tc.theCartOperationFailsWith)
	ctx.Step(`^the receipt shows subtotal (\S+), shipping (\S+) and total (\S+)$`, tc.theReceiptShows)
	ctx.Step(`^the shipment notice weighs (\S+) kg$`, tc.theShipmentNoticeWeighs)
	ctx.Step(`^the customer balance is (\S+)$`, tc.theCustomerBalanceIs)
	ctx.Step(`^the cart holds (\d+) lines?$`, tc.theCartHoldsLines)
	ctx.Step(`^the cart is empty$`, tc.theCartIsEmpty)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"testdata/checkout.feature"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
