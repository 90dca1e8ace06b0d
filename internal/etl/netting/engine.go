// warehouse-go/internal/etl/netting/engine.go

// Package netting implements stack-based (LIFO) reversal netting for SAP
// material movements. A reversal cancels the most recent matching forward
// movement, so surviving movements are found by replaying the batch's
// history chronologically with a stack.
package netting

import (
	"sort"
	"time"

	"github.com/alkana/warehouse-go/internal/domain"
)

// Movement is one material movement row as the engine sees it.
type Movement struct {
	PostingDate   time.Time
	MvtType       int
	Plant         int
	Material      string
	Batch         string
	Qty           float64
	Reference     string
	PurchaseOrder string
}

// Result summarizes netting one (batch, plant, forward, reverse) group.
type Result struct {
	Batch      string
	Plant      int
	Material   string
	ForwardMvt int
	ReverseMvt int

	TotalForward int
	TotalReverse int

	RemainingForward int
	NettedCount      int

	// Surviving holds the forward movements left on the stack, in
	// posting order.
	Surviving      []Movement
	FirstValidDate *time.Time
	LastValidDate  *time.Time
	NetQuantity    float64

	IsFullyReversed bool
}

// Engine nets movements. Plants are never mixed: the factory and the DC
// keep separate inventories, so every query is plant-scoped.
type Engine struct {
	movements []Movement
}

func NewEngine(movements []Movement) *Engine {
	return &Engine{movements: movements}
}

// Net applies LIFO netting for one batch at one plant over a
// forward/reverse movement pair. Reversals with an empty stack are
// discarded; a reversal can only cancel what this plant received.
func (e *Engine) Net(batch string, plant, forward, reverse int) Result {
	res := Result{
		Batch:           batch,
		Plant:           plant,
		ForwardMvt:      forward,
		ReverseMvt:      reverse,
		IsFullyReversed: true,
	}

	var filtered []Movement
	for _, m := range e.movements {
		if m.Batch != batch || m.Plant != plant {
			continue
		}
		if m.MvtType != forward && m.MvtType != reverse {
			continue
		}
		filtered = append(filtered, m)
	}
	if len(filtered) == 0 {
		return res
	}

	res.Material = filtered[0].Material
	for _, m := range filtered {
		if m.MvtType == forward {
			res.TotalForward++
		} else {
			res.TotalReverse++
		}
	}

	// Stable sort keeps source order for same-day movements.
	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].PostingDate.Before(filtered[j].PostingDate)
	})

	var stack []Movement
	for _, m := range filtered {
		if m.MvtType == forward {
			stack = append(stack, m)
		} else if len(stack) > 0 {
			stack = stack[:len(stack)-1]
		}
	}

	res.RemainingForward = len(stack)
	res.NettedCount = min(res.TotalForward, res.TotalReverse)

	if len(stack) == 0 {
		return res
	}

	res.IsFullyReversed = false
	res.Surviving = stack
	first, last := stack[0].PostingDate, stack[0].PostingDate
	var sum float64
	for _, m := range stack {
		if m.PostingDate.Before(first) {
			first = m.PostingDate
		}
		if m.PostingDate.After(last) {
			last = m.PostingDate
		}
		sum += m.Qty
	}
	res.FirstValidDate = &first
	res.LastValidDate = &last
	if sum < 0 {
		sum = -sum
	}
	res.NetQuantity = sum
	return res
}

// FirstValidReceiptDate nets goods receipts (101/102) and returns the
// earliest surviving receipt date, nil when fully reversed.
func (e *Engine) FirstValidReceiptDate(batch string, plant int) *time.Time {
	return e.Net(batch, plant, domain.MvtGoodsReceipt, domain.MvtGoodsReceiptRev).FirstValidDate
}

// LastValidIssueDate nets delivery issues (601/602) and returns the
// latest surviving issue date, nil when fully reversed.
func (e *Engine) LastValidIssueDate(batch string, plant int) *time.Time {
	return e.Net(batch, plant, domain.MvtIssueDelivery, domain.MvtIssueDeliveryRev).LastValidDate
}

// DeliveryStatus classifies the batch's 601/602 outcome at a plant.
func (e *Engine) DeliveryStatus(batch string, plant int) domain.DeliveryStatus {
	res := e.Net(batch, plant, domain.MvtIssueDelivery, domain.MvtIssueDeliveryRev)
	switch {
	case res.IsFullyReversed:
		return domain.DeliveryFullyReversed
	case res.NettedCount > 0:
		return domain.DeliveryPartiallyReversed
	default:
		return domain.DeliveryDelivered
	}
}

// Batches lists distinct batches seen at a plant, in first-seen order.
func (e *Engine) Batches(plant int) []string {
	seen := make(map[string]bool)
	var out []string
	for _, m := range e.movements {
		if m.Plant != plant || m.Batch == "" || seen[m.Batch] {
			continue
		}
		seen[m.Batch] = true
		out = append(out, m.Batch)
	}
	return out
}
