package repository

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/okian/socgpa/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
	"gorm.io/datatypes"
)

type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	clock := &stepClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "nested", "socgpa.db"), WithNowFunc(clock.Now))
	if err != nil {
		t.Fatalf("NewSQLiteStore error: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStoreUsers(t *testing.T) {
	ctx := context.Background()

	Convey("Given an empty store", t, func() {
		store := newTestStore(t)

		Convey("When a user is upserted twice", func() {
			first, err := store.UpsertUser(ctx, "u1", "Aigerim")
			So(err, ShouldBeNil)
			second, err := store.UpsertUser(ctx, "u1", "")
			So(err, ShouldBeNil)
			renamed, err := store.UpsertUser(ctx, "u1", "Aigerim S.")
			So(err, ShouldBeNil)

			Convey("Then an empty name should not overwrite and created_at should stay", func() {
				So(first.FullName, ShouldEqual, "Aigerim")
				So(first.SocCoins, ShouldEqual, 0)
				So(second.FullName, ShouldEqual, "Aigerim")
				So(renamed.FullName, ShouldEqual, "Aigerim S.")
				So(renamed.CreatedAt.Equal(first.CreatedAt), ShouldBeTrue)

				n, err := store.CountUsers(ctx)
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 1)
			})
		})

		Convey("When the id is blank", func() {
			_, err := store.UpsertUser(ctx, "  ", "x")

			Convey("Then ErrInvalidInput should be returned", func() {
				So(errors.Is(err, ErrInvalidInput), ShouldBeTrue)
			})
		})

		Convey("When an unknown user is fetched", func() {
			_, err := store.GetUser(ctx, "ghost")

			Convey("Then ErrNotFound should be returned", func() {
				So(errors.Is(err, ErrNotFound), ShouldBeTrue)
			})
		})
	})
}

func TestSQLiteStoreAchievements(t *testing.T) {
	ctx := context.Background()

	Convey("Given a store with one user", t, func() {
		store := newTestStore(t)
		_, err := store.UpsertUser(ctx, "u1", "Timur")
		So(err, ShouldBeNil)

		Convey("When an achievement is created", func() {
			a := &model.Achievement{UserID: "u1", Title: "Chess club", Category: model.CategoryCompetence}
			So(store.CreateAchievement(ctx, a), ShouldBeNil)

			Convey("Then it should get an id, pending status and points", func() {
				So(a.ID, ShouldHaveLength, 36)
				So(a.Status, ShouldEqual, model.StatusPending)

				got, err := store.GetAchievement(ctx, a.ID)
				So(err, ShouldBeNil)
				So(got.Title, ShouldEqual, "Chess club")
				So(got.TotalPoints, ShouldEqual, model.CalculatePoints(
					model.CategoryCompetence, model.ScaleSchool, model.RoleParticipant, 0, model.StatusPending))
			})
		})

		Convey("When a classified record is saved with coins", func() {
			a := &model.Achievement{UserID: "u1", Title: "Marathon"}
			So(store.CreateAchievement(ctx, a), ShouldBeNil)
			created, err := store.GetAchievement(ctx, a.ID)
			So(err, ShouldBeNil)

			a.Category = model.CategorySports
			a.Scale = model.ScaleCity
			a.Role = model.RoleWinner
			a.DurationMonths = 3
			a.Status = model.StatusApproved
			a.AIRawResponse = datatypes.JSON(`{"provider":"local_fallback"}`)
			a.CreatedAt = created.CreatedAt.Add(48 * time.Hour)
			So(store.SaveClassified(ctx, a, 45), ShouldBeNil)

			Convey("Then points are recomputed, created_at is kept and coins credited", func() {
				got, err := store.GetAchievement(ctx, a.ID)
				So(err, ShouldBeNil)
				So(got.Status, ShouldEqual, model.StatusApproved)
				So(got.TotalPoints, ShouldEqual, model.CalculatePoints(
					model.CategorySports, model.ScaleCity, model.RoleWinner, 3, model.StatusApproved))
				So(got.CreatedAt.Equal(created.CreatedAt), ShouldBeTrue)
				So(string(got.AIRawResponse), ShouldContainSubstring, "local_fallback")

				user, err := store.GetUser(ctx, "u1")
				So(err, ShouldBeNil)
				So(user.SocCoins, ShouldEqual, 45)
			})
		})

		Convey("When the owner does not exist", func() {
			a := &model.Achievement{UserID: "ghost", Title: "Orphan"}
			So(store.CreateAchievement(ctx, a), ShouldBeNil)
			a.Status = model.StatusApproved
			err := store.SaveClassified(ctx, a, 10)

			Convey("Then the whole save should be rolled back", func() {
				So(errors.Is(err, ErrNotFound), ShouldBeTrue)
				got, err := store.GetAchievement(ctx, a.ID)
				So(err, ShouldBeNil)
				So(got.Status, ShouldEqual, model.StatusPending)
			})
		})

		Convey("When records are listed for scoring", func() {
			for _, title := range []string{"first", "second", "third"} {
				a := &model.Achievement{UserID: "u1", Title: title, Status: model.StatusApproved}
				So(store.CreateAchievement(ctx, a), ShouldBeNil)
			}
			So(store.CreateAchievement(ctx, &model.Achievement{UserID: "u1", Title: "pending"}), ShouldBeNil)
			So(store.CreateAchievement(ctx, &model.Achievement{UserID: "u2", Title: "other user", Status: model.StatusApproved}), ShouldBeNil)

			list, err := store.ApprovedByUser(ctx, "u1")

			Convey("Then only the user's approved records should come back oldest first", func() {
				So(err, ShouldBeNil)
				So(list, ShouldHaveLength, 3)
				So(list[0].Title, ShouldEqual, "first")
				So(list[2].Title, ShouldEqual, "third")

				n, err := store.CountAchievements(ctx)
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 5)
			})
		})

		Convey("When a pending achievement is deleted", func() {
			a := &model.Achievement{UserID: "u1", Title: "Abandoned"}
			So(store.CreateAchievement(ctx, a), ShouldBeNil)
			err := store.DeleteAchievement(ctx, a.ID)

			Convey("Then it should be gone and a second delete should miss", func() {
				So(err, ShouldBeNil)
				_, err := store.GetAchievement(ctx, a.ID)
				So(errors.Is(err, ErrNotFound), ShouldBeTrue)
				So(errors.Is(store.DeleteAchievement(ctx, a.ID), ErrNotFound), ShouldBeTrue)

				n, err := store.CountAchievements(ctx)
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 0)
			})
		})

		Convey("When an unknown achievement is fetched", func() {
			_, err := store.GetAchievement(ctx, "missing")

			Convey("Then ErrNotFound should be returned", func() {
				So(errors.Is(err, ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When the user id is missing", func() {
			err := store.CreateAchievement(ctx, &model.Achievement{Title: "nobody"})

			Convey("Then ErrInvalidInput should be returned", func() {
				So(errors.Is(err, ErrInvalidInput), ShouldBeTrue)
			})
		})
	})
}
