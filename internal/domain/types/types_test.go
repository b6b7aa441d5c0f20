package types_test

import (
	"path/filepath"
	"testing"

	types "github.com/okian/bandboard/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSources(t *testing.T) {
	Convey("Given the fixed source set", t, func() {
		srcs := types.Sources()

		Convey("Then it should list four sources in declared order", func() {
			So(len(srcs), ShouldEqual, 4)
			So(srcs[0], ShouldResemble, types.SourceFile{Name: "Data Collection.json", Kind: types.KindScores})
			So(srcs[1].Kind, ShouldEqual, types.KindAdjudication)
			So(srcs[2].Name, ShouldEqual, "2025_judge_comments.json")
			So(srcs[3].Kind, ShouldEqual, types.KindHistoricalComments)
		})

		Convey("When the returned slice is modified", func() {
			srcs[0].Name = "other.json"

			Convey("Then the set itself should be unchanged", func() {
				So(types.Sources()[0].Name, ShouldEqual, "Data Collection.json")
			})
		})

		Convey("When resolving a path", func() {
			p := srcs[1].Path("JSON Files")

			Convey("Then it should join the data directory", func() {
				So(p, ShouldEqual, filepath.Join("JSON Files", "AdjudicationSheets.json"))
			})
		})
	})
}

func TestLookup(t *testing.T) {
	Convey("Given source names", t, func() {
		Convey("When the name matches exactly", func() {
			s, ok := types.Lookup("historical_judge_comments.json")

			Convey("Then the source should be found", func() {
				So(ok, ShouldBeTrue)
				So(s.Kind, ShouldEqual, types.KindHistoricalComments)
			})
		})

		Convey("When the case differs", func() {
			_, ok := types.Lookup("data collection.json")

			Convey("Then it should not match", func() {
				So(ok, ShouldBeFalse)
			})
		})
	})
}

func TestKindValid(t *testing.T) {
	Convey("Given payload kinds", t, func() {
		Convey("Then every declared kind should be valid", func() {
			for _, k := range types.Kinds() {
				So(k.Valid(), ShouldBeTrue)
			}
		})

		Convey("Then an unknown kind should be invalid", func() {
			So(types.Kind("weather").Valid(), ShouldBeFalse)
		})
	})
}
