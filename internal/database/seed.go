package database

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"ms-charity/internal/models"
)

var seedCategories = []string{
	"Gala Dinner", "Fun Run", "Silent Auction", "Concert",
	"Workshop", "Sports Tournament", "Art Exhibition", "Food Festival",
}

type seedEvent struct {
	name, image, date, location, description string
	price                                    float64
	current, goal, status                    int
	category                                 string
}

var seedEvents = []seedEvent{
	{"Annual Charity Gala 2025", "/images/1.jpg", "2025-11-15", "Sydney Opera House", "Join us for an elegant evening of dining and entertainment to support children education.", 150, 45, 200, 1, "Gala Dinner"},
	{"Sunrise Fun Run", "/images/2.jpg", "2025-10-20", "Melbourne Park", "Start your day with a refreshing 5km run to raise funds for cancer research.", 25, 120, 300, 1, "Fun Run"},
	{"Art for Hope Exhibition", "/images/3.jpg", "2025-12-05", "Brisbane Art Gallery", "Featuring local artists with all proceeds supporting mental health initiatives.", 0, 80, 150, 1, "Art Exhibition"},
	{"Gourmet Giving Festival", "/images/4.jpg", "2025-11-30", "Adelaide Showground", "Taste dishes from top chefs while supporting food security programs.", 45, 200, 400, 1, "Food Festival"},
	{"Tennis Charity Open", "/images/5.jpg", "2025-10-10", "Perth Tennis Club", "Amateur tennis tournament with all entry fees donated to youth sports programs.", 30, 60, 100, 1, "Sports Tournament"},
	{"Symphony of Hope", "/images/6.jpg", "2025-12-20", "Melbourne Concert Hall", "An evening of classical music to raise funds for medical research.", 75, 150, 250, 1, "Concert"},
	{"Silent Auction Extravaganza", "/images/7.jpg", "2025-11-25", "Online Event", "Bid on exclusive items and experiences from the comfort of your home.", 0, 95, 200, 1, "Silent Auction"},
	{"Community Coding Workshop", "/images/9.jpg", "2025-08-15", "Canberra Innovation Hub", "A hands-on workshop for aspiring developers to learn the basics of web development.", 25, 48, 50, 1, "Workshop"},
	{"Suspend Test Event", "/images/14.jpg", "2025-11-01", "Suspend", "This event has been postponed. Please check back later for a new date.", 0, 0, 150, 0, "Silent Auction"},
}

// Seed inserts demo categories and events. Seeded attendee counts are backed
// by one synthetic registration per event so the ledger stays consistent.
func Seed(ctx context.Context, db *bun.DB) error {
	return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		ids := make(map[string]int64, len(seedCategories))
		for _, name := range seedCategories {
			c := models.Category{CategoryName: name}
			if _, err := tx.NewInsert().Model(&c).Exec(ctx); err != nil {
				return fmt.Errorf("seed category %q: %w", name, err)
			}
			ids[name] = c.CategoryID
		}

		for _, se := range seedEvents {
			date, err := models.ParseDate(se.date)
			if err != nil {
				return err
			}
			ev := models.Event{
				EventName:        se.name,
				EventImage:       se.image,
				EventDate:        date,
				Location:         se.location,
				Description:      se.description,
				TicketPrice:      models.Money(se.price),
				CurrentAttendees: se.current,
				GoalAttendees:    se.goal,
				CurrentStatus:    se.status,
				CategoryID:       ids[se.category],
			}
			if _, err := tx.NewInsert().Model(&ev).Exec(ctx); err != nil {
				return fmt.Errorf("seed event %q: %w", se.name, err)
			}
			if se.current == 0 {
				continue
			}
			reg := models.Registration{
				EventID:          ev.EventID,
				UserName:         "Seed Attendees",
				ContactEmail:     "seed@charity.example",
				NumberOfTickets:  se.current,
				RegistrationDate: date.AddDate(0, -1, 0),
			}
			if _, err := tx.NewInsert().Model(&reg).Exec(ctx); err != nil {
				return fmt.Errorf("seed registration for %q: %w", se.name, err)
			}
		}
		return nil
	})
}
