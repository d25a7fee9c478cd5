package enum

// PaymentStatus represents how much of a bill has been paid
type PaymentStatus string

const (
	PaymentStatusPaid    PaymentStatus = "Paid"
	PaymentStatusUnpaid  PaymentStatus = "Unpaid"
	PaymentStatusPartial PaymentStatus = "Partial"
)

var PaymentStatuses = []PaymentStatus{PaymentStatusPaid, PaymentStatusUnpaid, PaymentStatusPartial}

func (s PaymentStatus) String() string {
	return string(s)
}

func (s PaymentStatus) IsValid() bool {
	return contains(PaymentStatuses, s)
}

func (s *PaymentStatus) UnmarshalJSON(data []byte) error {
	v, err := unmarshalClosed(data, PaymentStatuses, "payment status")
	if err != nil {
		return err
	}
	*s = v
	return nil
}
