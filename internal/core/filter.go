package core

import "strings"

// FilterTransactions applies spec to txs and returns the matches in their
// original relative order; sorting is a caller concern. ownerOf maps
// accountID to the holder member for both bank accounts and cards.
//
// Conditions are independent ANDs:
//   - date range, when present, matches tx.Date inclusively; a nil End is
//     open-ended from Start (single-day callers pass End = Start);
//   - a type other than TypeAll must equal tx.Type;
//   - a member matches either by direct assignment or through ownership
//     of the posting account — both paths are checked;
//   - search text is a case-insensitive substring of description+category.
func FilterTransactions(txs []Transaction, spec FilterSpec, ownerOf map[string]string) []Transaction {
	needle := strings.ToLower(strings.TrimSpace(spec.SearchText))

	out := make([]Transaction, 0, len(txs))
	for _, tx := range txs {
		if spec.Range != nil && !spec.Range.Contains(tx.Date) {
			continue
		}
		if spec.Type != "" && spec.Type != TypeAll && tx.Type != spec.Type {
			continue
		}
		if spec.MemberID != "" && !belongsToMember(tx, spec.MemberID, ownerOf) {
			continue
		}
		if needle != "" {
			haystack := strings.ToLower(tx.Description + " " + tx.Category)
			if !strings.Contains(haystack, needle) {
				continue
			}
		}
		out = append(out, tx)
	}
	return out
}

// belongsToMember reports whether a transaction is attributable to the
// member, either directly or via the posting account's holder.
func belongsToMember(tx Transaction, memberID string, ownerOf map[string]string) bool {
	if tx.MemberID == memberID {
		return true
	}
	return ownerOf[tx.AccountID] == memberID
}
