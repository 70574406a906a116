package monitor

import (
	"fmt"
	"strconv"
	"strings"

	"buywise/internal/notify"
	"buywise/internal/watchlist"
)

const (
	subjectTargetReached = "Price Alert: Target Reached!"
	subjectPriceDrop     = "Price Drop Alert!"
)

func targetReachedMessage(e watchlist.Entry) notify.Message {
	var b strings.Builder
	b.WriteString("🎯 TARGET PRICE REACHED!\n\n")
	fmt.Fprintf(&b, "Product: %s\n", e.Query)
	fmt.Fprintf(&b, "Your Target: ₹%s\n", notify.FormatPrice(e.TargetPrice))
	fmt.Fprintf(&b, "Current Best Price: ₹%s\n\n", notify.FormatPrice(e.CurrentBestPrice))
	writeDeal(&b, e)

	return notify.Message{
		RecipientID:  e.UserID,
		Subject:      subjectTargetReached,
		Body:         b.String(),
		Kind:         notify.KindTargetReached,
		WatchID:      e.ID,
		CurrentPrice: e.CurrentBestPrice,
		TargetPrice:  e.TargetPrice,
	}
}

func priceDropMessage(e watchlist.Entry, previous float64) notify.Message {
	var b strings.Builder
	b.WriteString("📉 PRICE DROP!\n\n")
	fmt.Fprintf(&b, "Product: %s\n", e.Query)
	fmt.Fprintf(&b, "Previous Best Price: ₹%s\n", notify.FormatPrice(previous))
	fmt.Fprintf(&b, "Current Best Price: ₹%s\n", notify.FormatPrice(e.CurrentBestPrice))
	fmt.Fprintf(&b, "Your Target: ₹%s\n\n", notify.FormatPrice(e.TargetPrice))
	writeDeal(&b, e)

	return notify.Message{
		RecipientID:   e.UserID,
		Subject:       subjectPriceDrop,
		Body:          b.String(),
		Kind:          notify.KindPriceDrop,
		WatchID:       e.ID,
		CurrentPrice:  e.CurrentBestPrice,
		TargetPrice:   e.TargetPrice,
		PreviousPrice: previous,
	}
}

func writeDeal(b *strings.Builder, e watchlist.Entry) {
	fmt.Fprintf(b, "Store: %s\n", e.BestDeal.Store)
	fmt.Fprintf(b, "Product: %s\n", e.BestDeal.Name)
	fmt.Fprintf(b, "Rating: %s⭐\n\n", strconv.FormatFloat(e.BestDeal.Rating, 'f', 1, 64))
	fmt.Fprintf(b, "Buy now: %s\n", e.BestDeal.URL)
}
