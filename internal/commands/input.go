package commands

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/mmynk/settleup/internal/calculator"
	"github.com/mmynk/settleup/internal/models"
)

// ledgerFile is the on-disk input. JSON files parse as YAML too.
//
//	expenses:
//	  - payer: alice
//	    amount: 90
//	    split_equally: [alice, bob, cleo]
//	  - payer: bob
//	    amount: 60
//	    splits:
//	      - {member: alice, share: 45}
//	      - {member: cleo, share: 15}
//	settlements:
//	  - {from: cleo, to: alice, amount: 10}
//	names:
//	  alice: Alice
type ledgerFile struct {
	Expenses    []expenseEntry    `yaml:"expenses"`
	Settlements []settlementEntry `yaml:"settlements"`
	Names       map[string]string `yaml:"names"`
}

type expenseEntry struct {
	Payer        string          `yaml:"payer"`
	Amount       decimal.Decimal `yaml:"amount"`
	Description  string          `yaml:"description"`
	Splits       []splitEntry    `yaml:"splits"`
	SplitEqually []string        `yaml:"split_equally"`
}

type splitEntry struct {
	Member string          `yaml:"member"`
	Share  decimal.Decimal `yaml:"share"`
}

type settlementEntry struct {
	From   string          `yaml:"from"`
	To     string          `yaml:"to"`
	Amount decimal.Decimal `yaml:"amount"`
}

func readLedger(path string) (*ledgerFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var lf ledgerFile
	if err := yaml.Unmarshal(data, &lf); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &lf, nil
}

func readNames(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	names := make(map[string]string)
	if err := yaml.Unmarshal(data, &names); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return names, nil
}

// records validates the file and converts it to engine input. Recorded
// settlements become expenses paid by the sender on the receiver's behalf.
func (lf *ledgerFile) records() ([]calculator.Expense, error) {
	records := make([]calculator.Expense, 0, len(lf.Expenses)+len(lf.Settlements))
	for i, e := range lf.Expenses {
		if e.Payer == "" {
			return nil, fmt.Errorf("expense %d: payer is required", i+1)
		}
		if !e.Amount.IsPositive() {
			return nil, fmt.Errorf("expense %d: amount must be greater than zero", i+1)
		}

		var splits []calculator.Split
		switch {
		case len(e.SplitEqually) > 0 && len(e.Splits) > 0:
			return nil, fmt.Errorf("expense %d: use either splits or split_equally", i+1)
		case len(e.SplitEqually) > 0:
			members := make([]calculator.MemberID, len(e.SplitEqually))
			for j, m := range e.SplitEqually {
				members[j] = calculator.MemberID(m)
			}
			var err error
			if splits, err = calculator.EqualSplit(e.Amount, members); err != nil {
				return nil, fmt.Errorf("expense %d: %w", i+1, err)
			}
		case len(e.Splits) > 0:
			sum := decimal.Zero
			for _, s := range e.Splits {
				if s.Member == "" || s.Share.IsNegative() {
					return nil, fmt.Errorf("expense %d: every split needs a member and a non-negative share", i+1)
				}
				sum = sum.Add(s.Share)
				splits = append(splits, calculator.Split{Member: calculator.MemberID(s.Member), Share: s.Share})
			}
			if !sum.Equal(e.Amount) {
				return nil, fmt.Errorf("expense %d: shares sum to %s, expected %s", i+1, sum, e.Amount)
			}
		default:
			return nil, fmt.Errorf("expense %d: splits or split_equally is required", i+1)
		}

		records = append(records, calculator.Expense{
			Payer:  calculator.MemberID(e.Payer),
			Amount: e.Amount,
			Splits: splits,
		})
	}

	for i, s := range lf.Settlements {
		if s.From == "" || s.To == "" || s.From == s.To {
			return nil, fmt.Errorf("settlement %d: from and to must be two different members", i+1)
		}
		if !s.Amount.IsPositive() {
			return nil, fmt.Errorf("settlement %d: amount must be greater than zero", i+1)
		}
		payment := models.Settlement{FromUserID: s.From, ToUserID: s.To, Amount: s.Amount}
		records = append(records, payment.Record())
	}
	return records, nil
}

func (lf *ledgerFile) displayName(id calculator.MemberID) string {
	if n := lf.Names[string(id)]; n != "" {
		return n
	}
	return string(id)
}
