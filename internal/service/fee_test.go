package service

import "testing"

func TestCalculatePlatformFee(t *testing.T) {
	tests := []struct {
		name   string
		amount float64
		want   float64
	}{
		{"zero amount", 0, 0},
		{"negative amount", -50, 0},
		{"small ticket", 100, 26},
		{"first tier edge", 500, 50},
		{"second tier start", 500.01, 65.00},
		{"second tier", 1000, 100},
		{"second tier edge", 1500, 135},
		{"third tier", 2000, 160},
		{"third tier edge", 3000, 220},
		{"fourth tier", 5000, 260},
		{"fee capped", 10000, 300},
		{"fee capped large", 100000, 300},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculatePlatformFee(tt.amount)
			if got != tt.want {
				t.Errorf("CalculatePlatformFee(%v) = %v, want %v", tt.amount, got, tt.want)
			}
		})
	}
}

func TestBuyerTotal(t *testing.T) {
	tests := []struct {
		name   string
		amount float64
		want   float64
	}{
		{"small ticket", 100, 126},
		{"first tier edge", 500, 550},
		{"second tier", 1000, 1100},
		{"fee capped", 10000, 10300},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuyerTotal(tt.amount)
			if got != tt.want {
				t.Errorf("BuyerTotal(%v) = %v, want %v", tt.amount, got, tt.want)
			}
		})
	}
}

func TestBuyerTotalAddsFeeOnTop(t *testing.T) {
	for _, amount := range []float64{1, 99.99, 500, 500.01, 1234.56, 3000, 9999.99} {
		fee := CalculatePlatformFee(amount)
		total := BuyerTotal(amount)
		if diff := total - amount - fee; diff > 0.009 || diff < -0.009 {
			t.Errorf("amount %v: total %v is not amount + fee %v (diff %v)", amount, total, fee, diff)
		}
	}
}
