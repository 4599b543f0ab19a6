package model_test

import (
	"testing"

	model "github.com/okian/socgpa/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestParseEnums(t *testing.T) {
	convey.Convey("Given raw enum strings", t, func() {
		convey.Convey("When they are known values in any case", func() {
			cat, catOK := model.ParseCategory(" Research ")
			scale, scaleOK := model.ParseScale("NATIONAL")
			role, roleOK := model.ParseRole("leader")
			status, statusOK := model.ParseStatus("approved")

			convey.Convey("Then they should parse", func() {
				convey.So(catOK, convey.ShouldBeTrue)
				convey.So(cat, convey.ShouldEqual, model.CategoryResearch)
				convey.So(scaleOK, convey.ShouldBeTrue)
				convey.So(scale, convey.ShouldEqual, model.ScaleNational)
				convey.So(roleOK, convey.ShouldBeTrue)
				convey.So(role, convey.ShouldEqual, model.RoleLeader)
				convey.So(statusOK, convey.ShouldBeTrue)
				convey.So(status, convey.ShouldEqual, model.StatusApproved)
			})
		})

		convey.Convey("When they are unknown", func() {
			cat, catOK := model.ParseCategory("chess")
			scale, scaleOK := model.ParseScale("")
			role, roleOK := model.ParseRole("coach")
			status, statusOK := model.ParseStatus("archived")

			convey.Convey("Then the defaults should be returned", func() {
				convey.So(catOK, convey.ShouldBeFalse)
				convey.So(cat, convey.ShouldEqual, model.CategoryOther)
				convey.So(scaleOK, convey.ShouldBeFalse)
				convey.So(scale, convey.ShouldEqual, model.ScaleSchool)
				convey.So(roleOK, convey.ShouldBeFalse)
				convey.So(role, convey.ShouldEqual, model.RoleParticipant)
				convey.So(statusOK, convey.ShouldBeFalse)
				convey.So(status, convey.ShouldEqual, model.StatusPending)
			})
		})

		convey.Convey("When checking core membership", func() {
			convey.So(model.CategoryOther.IsCore(), convey.ShouldBeFalse)
			convey.So(model.CategoryOther.Valid(), convey.ShouldBeTrue)
			convey.So(model.Category("Research").Valid(), convey.ShouldBeFalse)
			for _, c := range model.CoreCategories {
				convey.So(c.IsCore(), convey.ShouldBeTrue)
			}
		})
	})
}

func TestBuildProfileSummary(t *testing.T) {
	convey.Convey("Given a mix of achievements", t, func() {
		achievements := []model.Achievement{
			{ID: "a", Category: model.CategorySports, Status: model.StatusApproved},
			{ID: "b", Category: model.CategorySports, Status: model.StatusApproved},
			{ID: "c", Category: model.CategoryResearch, Status: model.StatusPending},
			{ID: "d", Category: "", Status: model.StatusApproved},
			{ID: "e", Category: model.CategorySocial, Status: model.StatusApproved},
		}

		convey.Convey("When summarising while excluding one record", func() {
			summary := model.BuildProfileSummary(achievements, "e")

			convey.Convey("Then only other approved records should be counted", func() {
				convey.So(summary.Total, convey.ShouldEqual, 3)
				convey.So(summary.ByCategory[model.CategorySports], convey.ShouldEqual, 2)
				convey.So(summary.ByCategory[model.CategoryOther], convey.ShouldEqual, 1)
				convey.So(summary.ByCategory[model.CategoryResearch], convey.ShouldEqual, 0)
				convey.So(summary.ByCategory[model.CategorySocial], convey.ShouldEqual, 0)
			})
		})
	})
}
