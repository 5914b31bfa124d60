package assist

import (
	"fmt"
	"strings"

	"github.com/mmynk/settleup/internal/calculator"
)

const (
	noTransfersText = "No settlements needed. Everyone is already balanced."
	unknownName     = "Someone"
)

// ExplainTransfers describes transfers one per line. Members missing from
// names are shown as "Someone".
func ExplainTransfers(transfers []calculator.Transfer, names map[calculator.MemberID]string) string {
	if len(transfers) == 0 {
		return noTransfersText
	}

	var b strings.Builder
	b.WriteString("These transfers settle all balances between group members:")
	for _, t := range transfers {
		fmt.Fprintf(&b, "\n%s pays %s %s.", nameOf(names, t.From), nameOf(names, t.To), t.Amount.StringFixed(calculator.TransferPlaces))
	}
	b.WriteString("\nEach payment goes directly from someone who owes money to someone who should receive it, starting with the largest amounts.")
	return b.String()
}

func nameOf(names map[calculator.MemberID]string, id calculator.MemberID) string {
	if n := names[id]; n != "" {
		return n
	}
	return unknownName
}
