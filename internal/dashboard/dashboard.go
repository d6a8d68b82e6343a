// Package dashboard renders the sentiment charts of a run as an HTML page
package dashboard

import (
	"fmt"
	"io"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"

	"github.com/pep299/comment-sentiment-analyzer/internal/model"
)

var sentimentOrder = []model.Sentiment{
	model.SentimentPositive,
	model.SentimentNegative,
	model.SentimentNeutral,
	model.SentimentError,
}

// scoreBuckets splits [-1, 1] into equal-width histogram buckets
const scoreBuckets = 10

// Render writes a page with the sentiment distribution and score histogram of run
func Render(w io.Writer, run *model.Run) error {
	page := components.NewPage()
	page.PageTitle = "Comment sentiment"
	page.AddCharts(
		distributionChart(run),
		histogramChart(run.Comments),
		kindChart(run.Comments),
	)
	return page.Render(w)
}

func title(run *model.Run) string {
	if run.Video != nil && run.Video.Title != "" {
		return run.Video.Title
	}
	return run.VideoURL
}

func distributionChart(run *model.Run) *charts.Pie {
	pie := charts.NewPie()
	pie.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Sentiment distribution",
			Subtitle: fmt.Sprintf("%s (%d comments, average %.2f)", title(run), run.Summary.Total, run.Summary.AverageScore),
		}),
		charts.WithInitializationOpts(opts.Initialization{Theme: types.ThemeWesteros}),
	)

	items := make([]opts.PieData, 0, len(sentimentOrder))
	for _, s := range sentimentOrder {
		if n := run.Summary.Counts[s]; n > 0 {
			items = append(items, opts.PieData{Name: string(s), Value: n})
		}
	}
	pie.AddSeries("Comments", items)
	return pie
}

func histogramChart(comments []model.Comment) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(charts.WithTitleOpts(opts.Title{Title: "Score distribution"}))

	labels, counts := Histogram(comments)
	data := make([]opts.BarData, len(counts))
	for i, n := range counts {
		data[i] = opts.BarData{Value: n}
	}
	bar.SetXAxis(labels).AddSeries("Comments", data)
	return bar
}

func kindChart(comments []model.Comment) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(charts.WithTitleOpts(opts.Title{Title: "Sentiment by comment type"}))

	kinds := []model.Kind{model.KindPrimary, model.KindReply, model.KindFallback}
	counts := make(map[model.Kind]map[model.Sentiment]int, len(kinds))
	for _, k := range kinds {
		counts[k] = make(map[model.Sentiment]int)
	}
	for _, c := range comments {
		if c.SentimentResult == nil {
			continue
		}
		if _, ok := counts[c.Kind]; ok {
			counts[c.Kind][c.Sentiment]++
		}
	}

	labels := make([]string, len(kinds))
	for i, k := range kinds {
		labels[i] = string(k)
	}
	bar.SetXAxis(labels)

	for _, s := range sentimentOrder {
		data := make([]opts.BarData, len(kinds))
		for i, k := range kinds {
			data[i] = opts.BarData{Value: counts[k][s]}
		}
		bar.AddSeries(string(s), data)
	}
	return bar
}

// Histogram counts classified comment scores in equal buckets over [-1, 1].
// Error results are left out.
func Histogram(comments []model.Comment) ([]string, []int) {
	width := 2.0 / scoreBuckets
	labels := make([]string, scoreBuckets)
	for i := range labels {
		lo := -1 + float64(i)*width
		labels[i] = fmt.Sprintf("%.1f..%.1f", lo, lo+width)
	}

	counts := make([]int, scoreBuckets)
	for _, c := range comments {
		if c.SentimentResult == nil || c.Sentiment == model.SentimentError {
			continue
		}
		score := model.ClampScore(c.Score)
		idx := int(math.Floor((score + 1) / width))
		if idx >= scoreBuckets {
			idx = scoreBuckets - 1
		}
		counts[idx]++
	}
	return labels, counts
}
