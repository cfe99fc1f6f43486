package listform

import hrsdk "hrconsole/sdk/go"

// prepend puts rec first and drops any older entry with the same id.
func prepend(items []hrsdk.Record, rec hrsdk.Record) []hrsdk.Record {
	out := make([]hrsdk.Record, 0, len(items)+1)
	out = append(out, rec)
	id, hasID := rec.ID()
	for _, it := range items {
		if hasID {
			if other, ok := it.ID(); ok && other == id {
				continue
			}
		}
		out = append(out, it)
	}
	return out
}

// replace swaps the entry with id for rec in place and drops any other entry already
// carrying rec's id. Missing ids leave items untouched.
func replace(items []hrsdk.Record, id int64, rec hrsdk.Record) []hrsdk.Record {
	out := make([]hrsdk.Record, 0, len(items))
	recID, hasRecID := rec.ID()
	placed := false
	for _, it := range items {
		other, ok := it.ID()
		if ok && other == id {
			if !placed {
				out = append(out, rec)
				placed = true
			}
			continue
		}
		if ok && hasRecID && other == recID {
			continue
		}
		out = append(out, it)
	}
	return out
}

func remove(items []hrsdk.Record, id int64) []hrsdk.Record {
	out := make([]hrsdk.Record, 0, len(items))
	for _, it := range items {
		if other, ok := it.ID(); ok && other == id {
			continue
		}
		out = append(out, it)
	}
	return out
}

// dedupe keeps the first occurrence of every id, preserving server order.
func dedupe(items []hrsdk.Record) []hrsdk.Record {
	seen := make(map[int64]struct{}, len(items))
	out := make([]hrsdk.Record, 0, len(items))
	for _, it := range items {
		if id, ok := it.ID(); ok {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
		}
		out = append(out, it)
	}
	return out
}
