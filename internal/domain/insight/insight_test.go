package insight

import (
	"testing"

	"github.com/shopspring/decimal"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/tasklytics/internal/domain/model"
)

func rec(category string, latest int64) model.Record {
	return model.Record{Category: category, Latest: decimal.NewFromInt(latest)}
}

func TestSummarize(t *testing.T) {
	Convey("Given a dataset", t, func() {
		Convey("When one category clearly leads", func() {
			s, ok := Summarize([]model.Record{rec("A", 100), rec("B", 300), rec("C", 100)})

			Convey("Then the figures should describe the leader", func() {
				So(ok, ShouldBeTrue)
				So(s.TopCategory, ShouldEqual, "B")
				So(s.Total.String(), ShouldEqual, "500")
				So(s.Share.String(), ShouldEqual, "60")
				So(s.Mean.StringFixed(2), ShouldEqual, "166.67")
			})
		})

		Convey("When values tie", func() {
			s, _ := Summarize([]model.Record{rec("first", 5), rec("second", 5)})

			Convey("Then the first record should win", func() {
				So(s.TopCategory, ShouldEqual, "first")
			})
		})

		Convey("When every value is zero", func() {
			s, ok := Summarize([]model.Record{rec("A", 0), rec("B", 0)})

			Convey("Then the share should be zero instead of dividing by zero", func() {
				So(ok, ShouldBeTrue)
				So(s.Share.IsZero(), ShouldBeTrue)
			})
		})

		Convey("When it is empty", func() {
			_, ok := Summarize(nil)
			So(ok, ShouldBeFalse)
		})
	})
}

func TestVerdict(t *testing.T) {
	Convey("Given share percentages", t, func() {
		So(Verdict(decimal.NewFromInt(75)), ShouldEqual, VerdictDominant)
		So(Verdict(decimal.NewFromInt(60)), ShouldEqual, VerdictModerate)
		So(Verdict(decimal.NewFromInt(20)), ShouldEqual, VerdictModerate)
		So(Verdict(decimal.NewFromInt(10)), ShouldEqual, VerdictBalanced)
	})
}

func TestGenerate(t *testing.T) {
	Convey("Given records with large values", t, func() {
		line := Generate([]model.Record{rec("Electronics", 12500), rec("Books", 2500)})

		Convey("Then numbers should carry thousands separators", func() {
			So(line, ShouldEqual, "Category 'Electronics' leads with 12,500, contributing 83.3% of total 15,000. "+
				"Average category value is 7,500. "+VerdictDominant)
		})
	})

	Convey("Given no records", t, func() {
		So(Generate(nil), ShouldEqual, NoData)
	})
}
