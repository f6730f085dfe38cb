package main

import (
	"encoding/json"

	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/cloudwatch"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
)

const (
	dashboardName  = "blog-monitoring"
	dashboardWidth = 24
	widgetHeight   = 8
)

// GraphWidget is a time series widget of a dashboard row.
type GraphWidget struct {
	Title   string
	Width   int
	Metrics []Metric
}

type dashboardWidget struct {
	Type       string           `json:"type"`
	X          int              `json:"x"`
	Y          int              `json:"y"`
	Width      int              `json:"width"`
	Height     int              `json:"height"`
	Properties widgetProperties `json:"properties"`
}

type widgetProperties struct {
	View    string   `json:"view"`
	Title   string   `json:"title"`
	Region  string   `json:"region"`
	Stacked bool     `json:"stacked"`
	Period  int      `json:"period"`
	Metrics []Metric `json:"metrics"`
}

// layoutDashboard places rows of widgets top to bottom, each row left to right.
// A row wider than the dashboard wraps onto the next line.
func layoutDashboard(region string, rows ...[]GraphWidget) []dashboardWidget {
	var widgets []dashboardWidget
	y := 0
	for _, row := range rows {
		x := 0
		for _, w := range row {
			if x+w.Width > dashboardWidth {
				x = 0
				y += widgetHeight
			}
			widgets = append(widgets, dashboardWidget{
				Type:   "metric",
				X:      x,
				Y:      y,
				Width:  w.Width,
				Height: widgetHeight,
				Properties: widgetProperties{
					View:    "timeSeries",
					Title:   w.Title,
					Region:  region,
					Period:  300,
					Metrics: w.Metrics,
				},
			})
			x += w.Width
		}
		y += widgetHeight
	}
	return widgets
}

// dashboardBody renders the blog dashboard: a CloudFront row and a load balancer row.
func dashboardBody(region, distributionID, loadBalancerSuffix string) (string, error) {
	widgets := layoutDashboard(region,
		[]GraphWidget{
			{Title: "CloudFront errors", Width: 12, Metrics: cloudFrontErrorMetrics(distributionID)},
			{Title: "CloudFront requests", Width: 12, Metrics: cloudFrontRequestMetrics(distributionID)},
		},
		[]GraphWidget{
			{Title: "Target response codes", Width: 8, Metrics: targetResponseCodeMetrics(loadBalancerSuffix)},
			{Title: "Load balancer response codes", Width: 8, Metrics: elbResponseCodeMetrics(loadBalancerSuffix)},
			{Title: "Target response time", Width: 8, Metrics: targetResponseTimeMetrics(loadBalancerSuffix)},
		},
	)

	b, err := json.Marshal(map[string]any{"widgets": widgets})
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// MonitoringArgs configures the dashboard.
type MonitoringArgs struct {
	Region       string
	Distribution *DistributionResources
	LoadBalancer *LoadBalancerResources
}

// createDashboard creates the CloudWatch dashboard. No alarms are attached.
func createDashboard(ctx *pulumi.Context, args MonitoringArgs, opts ...pulumi.ResourceOption) (*cloudwatch.Dashboard, error) {
	body := pulumi.All(args.Distribution.distribution.ID(), args.LoadBalancer.loadBalancer.ArnSuffix).ApplyT(
		func(all []interface{}) (string, error) {
			return dashboardBody(args.Region, string(all[0].(pulumi.ID)), all[1].(string))
		}).(pulumi.StringOutput)

	return cloudwatch.NewDashboard(ctx, "monitoring-dashboard", &cloudwatch.DashboardArgs{
		DashboardName: pulumi.String(dashboardName),
		DashboardBody: body,
	}, opts...)
}
