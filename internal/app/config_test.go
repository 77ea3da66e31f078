package app

import (
	"flag"
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("api", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	return fs
}

func TestParseConfig(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		args    []string
		check   func(t *testing.T, cfg Config, version bool)
		wantErr bool
	}{
		{
			name: "should use defaults",
			check: func(t *testing.T, cfg Config, version bool) {
				assert.False(t, version)
				assert.Equal(t, 3000, cfg.Port)
				assert.Equal(t, StorePostgres, cfg.Store)
				assert.Equal(t, 10*time.Minute, cfg.Booking.HoldTTL)
				assert.True(t, decimal.NewFromInt(150).Equal(cfg.Booking.UnitPrice))
				assert.Equal(t, "INR", cfg.Booking.Currency)
				assert.Equal(t, ProviderRazorpay, cfg.Payment.Provider)
			},
		},
		{
			name: "should read defaults from the environment",
			env: map[string]string{
				"PORT":       "4000",
				"STORE":      StoreMemory,
				"HOLD_TTL":   "90s",
				"UNIT_PRICE": "199.50",
			},
			check: func(t *testing.T, cfg Config, version bool) {
				assert.Equal(t, 4000, cfg.Port)
				assert.Equal(t, StoreMemory, cfg.Store)
				assert.Equal(t, 90*time.Second, cfg.Booking.HoldTTL)
				assert.Equal(t, "199.5", cfg.Booking.UnitPrice.String())
			},
		},
		{
			name: "should let flags override the environment",
			env:  map[string]string{"PORT": "4000"},
			args: []string{"-port", "5000", "-payment-provider", ProviderFake, "-version"},
			check: func(t *testing.T, cfg Config, version bool) {
				assert.True(t, version)
				assert.Equal(t, 5000, cfg.Port)
				assert.Equal(t, ProviderFake, cfg.Payment.Provider)
			},
		},
		{
			name:    "should fail on an invalid unit price",
			args:    []string{"-unit-price", "free"},
			wantErr: true,
		},
		{
			name:    "should fail on a hold ttl below one millisecond",
			args:    []string{"-hold-ttl", "500us"},
			wantErr: true,
		},
		{
			name: "should accept a sub-second hold ttl",
			args: []string{"-hold-ttl", "750ms"},
			check: func(t *testing.T, cfg Config, version bool) {
				assert.Equal(t, 750*time.Millisecond, cfg.Booking.HoldTTL)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, version, err := parseConfig(newFlagSet(), tt.args)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			tt.check(t, cfg, version)
		})
	}
}

func TestNewPaymentGateway(t *testing.T) {
	tests := []struct {
		name    string
		cfg     PaymentConfig
		wantErr bool
	}{
		{name: "fake", cfg: PaymentConfig{Provider: ProviderFake}},
		{name: "razorpay", cfg: PaymentConfig{Provider: ProviderRazorpay, KeyID: "rzp_test", KeySecret: "secret"}},
		{name: "razorpay without keys", cfg: PaymentConfig{Provider: ProviderRazorpay}, wantErr: true},
		{name: "stripe", cfg: PaymentConfig{Provider: ProviderStripe, StripeKey: "sk_test"}},
		{name: "stripe without key", cfg: PaymentConfig{Provider: ProviderStripe}, wantErr: true},
		{name: "unknown", cfg: PaymentConfig{Provider: "paypal"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gateway, err := newPaymentGateway(tt.cfg)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.NotNil(t, gateway)
		})
	}
}
