package periods

// Plan lists the writes that insert a period without breaking the
// non-overlap invariant. Apply order is Delete, Update, Add.
type Plan struct {
	Add    []Period `json:"add"`
	Update []Period `json:"update"`
	Delete []string `json:"delete"`
}

func (p Plan) Empty() bool {
	return len(p.Add) == 0 && len(p.Update) == 0 && len(p.Delete) == 0
}

// Reconcile computes the plan for inserting incoming into existing. incoming
// always wins: existing periods it fully covers are deleted, partially
// covered ones are trimmed, and a period strictly containing it is split in
// two. newID names the split-off head and an incoming period without an id.
//
// An existing period with incoming's id is replaced, which is how an edit to
// a stored period is expressed.
//
// incoming must be valid and existing must be non-overlapping.
func Reconcile(incoming Period, existing []Period, newID func() string) Plan {
	incoming = incoming.Clone()
	if incoming.ID == "" {
		incoming.ID = newID()
	}

	var plan Plan
	for _, cur := range existing {
		if cur.ID == incoming.ID {
			plan.Delete = append(plan.Delete, cur.ID)
			continue
		}
		newStart, newEnd := incoming.StartDate, incoming.EndDate
		curStart, curEnd := cur.StartDate, cur.EndDate

		switch {
		case newEnd.Before(curStart) || newStart.After(curEnd):
			// disjoint
		case !newStart.After(curStart) && !newEnd.Before(curEnd):
			plan.Delete = append(plan.Delete, cur.ID)
		case curStart.Before(newStart) && curEnd.After(newEnd):
			head := cur.withRange(curStart, newStart.AddDays(-1))
			head.ID = newID()
			plan.Add = append(plan.Add, head)
			plan.Update = append(plan.Update, cur.withRange(newEnd.AddDays(1), curEnd))
		case !newStart.After(curStart):
			plan.Update = append(plan.Update, cur.withRange(newEnd.AddDays(1), curEnd))
		default:
			plan.Update = append(plan.Update, cur.withRange(curStart, newStart.AddDays(-1)))
		}
	}
	plan.Add = append(plan.Add, incoming)
	return plan
}

// Apply runs the plan against a snapshot and returns the resulting set
// ordered by start date. The input slice is not modified.
func (p Plan) Apply(existing []Period) []Period {
	deleted := make(map[string]struct{}, len(p.Delete))
	for _, id := range p.Delete {
		deleted[id] = struct{}{}
	}
	updated := make(map[string]Period, len(p.Update))
	for _, u := range p.Update {
		updated[u.ID] = u
	}

	out := make([]Period, 0, len(existing)+len(p.Add))
	for _, cur := range existing {
		if _, gone := deleted[cur.ID]; gone {
			continue
		}
		if u, ok := updated[cur.ID]; ok {
			out = append(out, u.Clone())
			continue
		}
		out = append(out, cur.Clone())
	}
	for _, add := range p.Add {
		out = append(out, add.Clone())
	}
	return Sorted(out)
}
