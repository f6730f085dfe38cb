package main

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type parsedDashboard struct {
	Widgets []struct {
		Type       string `json:"type"`
		X          int    `json:"x"`
		Y          int    `json:"y"`
		Width      int    `json:"width"`
		Height     int    `json:"height"`
		Properties struct {
			Title   string            `json:"title"`
			Region  string            `json:"region"`
			Period  int               `json:"period"`
			View    string            `json:"view"`
			Metrics []json.RawMessage `json:"metrics"`
		} `json:"properties"`
	} `json:"widgets"`
}

func TestMetric_MarshalJSON(t *testing.T) {
	b, err := json.Marshal(cloudFrontMetric("E2QWRUHAPOMQZL", "Requests", "Sum", "Requests"))
	require.NoError(t, err)
	assert.JSONEq(t, `["AWS/CloudFront", "Requests", "DistributionId", "E2QWRUHAPOMQZL", "Region", "Global",
		{"stat": "Sum", "yAxis": "right", "label": "Requests", "region": "us-east-1"}]`, string(b))

	b, err = json.Marshal(loadBalancerMetric("app/blog/50dc6c495c0c9188", "TargetResponseTime", "p95", ""))
	require.NoError(t, err)
	assert.JSONEq(t, `["AWS/ApplicationELB", "TargetResponseTime", "LoadBalancer", "app/blog/50dc6c495c0c9188",
		{"stat": "p95", "yAxis": "right"}]`, string(b))
}

func TestLayoutDashboard_Wraps(t *testing.T) {
	widgets := layoutDashboard(testRegion,
		[]GraphWidget{{Title: "a", Width: 12}, {Title: "b", Width: 12}, {Title: "c", Width: 12}},
		[]GraphWidget{{Title: "d", Width: 24}},
	)
	require.Len(t, widgets, 4)

	positions := make([][2]int, 0, len(widgets))
	for _, w := range widgets {
		positions = append(positions, [2]int{w.X, w.Y})
	}
	assert.Equal(t, [][2]int{{0, 0}, {12, 0}, {0, 8}, {0, 16}}, positions)
}

func TestDashboardBody(t *testing.T) {
	body, err := dashboardBody(testRegion, "E2QWRUHAPOMQZL", "app/blog/50dc6c495c0c9188")
	require.NoError(t, err)

	var dashboard parsedDashboard
	require.NoError(t, json.Unmarshal([]byte(body), &dashboard))
	require.Len(t, dashboard.Widgets, 5)

	expected := []struct {
		title   string
		x, y    int
		width   int
		metrics int
	}{
		{"CloudFront errors", 0, 0, 12, 2},
		{"CloudFront requests", 12, 0, 12, 1},
		{"Target response codes", 0, 8, 8, 4},
		{"Load balancer response codes", 8, 8, 8, 3},
		{"Target response time", 16, 8, 8, 3},
	}
	for i, want := range expected {
		w := dashboard.Widgets[i]
		assert.Equal(t, "metric", w.Type)
		assert.Equal(t, want.title, w.Properties.Title)
		assert.Equal(t, want.x, w.X, want.title)
		assert.Equal(t, want.y, w.Y, want.title)
		assert.Equal(t, want.width, w.Width, want.title)
		assert.Equal(t, widgetHeight, w.Height)
		assert.Equal(t, testRegion, w.Properties.Region)
		assert.Equal(t, 300, w.Properties.Period)
		assert.Equal(t, "timeSeries", w.Properties.View)
		assert.Len(t, w.Properties.Metrics, want.metrics, want.title)
	}
}

func TestDashboard_UsesDeployedIdentifiers(t *testing.T) {
	mocks, err := runStack(t, testEnvironment(), nil)
	require.NoError(t, err)

	dashboard := mocks.named(t, "aws:cloudwatch/dashboard:Dashboard", "monitoring-dashboard")
	assert.Equal(t, dashboardName, str(dashboard, "dashboardName"))

	body := str(dashboard, "dashboardBody")
	assert.Contains(t, body, `"DistributionId","website-distribution_id"`)
	assert.Contains(t, body, `"LoadBalancer","app/web-server-alb/50dc6c495c0c9188"`)
}
