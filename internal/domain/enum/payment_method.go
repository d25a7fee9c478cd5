package enum

// PaymentMethod represents how a bill was paid
type PaymentMethod string

const (
	PaymentMethodCash  PaymentMethod = "Cash"
	PaymentMethodCard  PaymentMethod = "Card"
	PaymentMethodUPI   PaymentMethod = "UPI"
	PaymentMethodOther PaymentMethod = "Other"
)

var PaymentMethods = []PaymentMethod{PaymentMethodCash, PaymentMethodCard, PaymentMethodUPI, PaymentMethodOther}

func (m PaymentMethod) String() string {
	return string(m)
}

func (m PaymentMethod) IsValid() bool {
	return contains(PaymentMethods, m)
}

func (m *PaymentMethod) UnmarshalJSON(data []byte) error {
	v, err := unmarshalClosed(data, PaymentMethods, "payment method")
	if err != nil {
		return err
	}
	*m = v
	return nil
}
