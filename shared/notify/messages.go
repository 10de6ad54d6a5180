package notify

import (
	"fmt"
	"strings"

	"github.com/pavitra93/gym-billing-system/shared/models"
)

const messageDateLayout = "02-Jan-2006"

// ReceiptMessage renders the payment receipt text sent to a member
func ReceiptMessage(gym models.Gym, member models.Member, payment models.Payment, receipt models.Receipt) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🏋️ *%s*\n", gym.Name)
	fmt.Fprintf(&b, "📋 Receipt #%s\n\n", receipt.ReceiptNumber)
	fmt.Fprintf(&b, "Dear %s,\n\n", member.Name)
	b.WriteString("Thank you for your payment!\n\n")
	fmt.Fprintf(&b, "💰 Amount: ₹%s\n", payment.Amount.StringFixed(2))
	fmt.Fprintf(&b, "📅 Date: %s\n", payment.PaymentDate.Format(messageDateLayout))
	fmt.Fprintf(&b, "💳 Method: %s\n", payment.Method.Label())
	if payment.Month != "" {
		fmt.Fprintf(&b, "📆 Month: %s\n", payment.Month)
	}
	fmt.Fprintf(&b, "\nYour membership is valid until: %s\n\n", member.MembershipEndDate.Format(messageDateLayout))
	b.WriteString("For any queries, contact us:\n")
	fmt.Fprintf(&b, "📞 %s\n", gym.Phone)
	fmt.Fprintf(&b, "📧 %s\n\n", gym.Email)
	b.WriteString("Thank you for being with us!")
	return b.String()
}

// TestMessage verifies a gym's messaging setup
func TestMessage(gym models.Gym) string {
	return fmt.Sprintf("🏋️ Test Message from %s\n\n"+
		"This is a test message to verify WhatsApp integration.\n\n"+
		"If you received this, WhatsApp is configured correctly! ✅", gym.Name)
}
