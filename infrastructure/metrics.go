package main

import (
	"encoding/json"
)

const (
	cloudFrontNamespace = "AWS/CloudFront"
	cloudFrontRegion    = "us-east-1"
	elbNamespace        = "AWS/ApplicationELB"
)

// Dimension is one name/value pair of a CloudWatch metric.
type Dimension struct {
	Name  string
	Value string
}

// Metric is a single dashboard metric. It renders in the array form of the
// CloudWatch dashboard body: namespace, name, dimension pairs, then options.
type Metric struct {
	Namespace  string
	Name       string
	Dimensions []Dimension
	Stat       string
	Label      string
	Region     string
}

func (m Metric) MarshalJSON() ([]byte, error) {
	row := []any{m.Namespace, m.Name}
	for _, d := range m.Dimensions {
		row = append(row, d.Name, d.Value)
	}

	options := map[string]string{"stat": m.Stat, "yAxis": "right"}
	if m.Label != "" {
		options["label"] = m.Label
	}
	if m.Region != "" {
		options["region"] = m.Region
	}
	row = append(row, options)

	return json.Marshal(row)
}

func cloudFrontMetric(distributionID, name, stat, label string) Metric {
	return Metric{
		Namespace: cloudFrontNamespace,
		Name:      name,
		Dimensions: []Dimension{
			{Name: "DistributionId", Value: distributionID},
			{Name: "Region", Value: "Global"},
		},
		Stat:   stat,
		Label:  label,
		Region: cloudFrontRegion,
	}
}

func loadBalancerMetric(arnSuffix, name, stat, label string) Metric {
	return Metric{
		Namespace: elbNamespace,
		Name:      name,
		Dimensions: []Dimension{
			{Name: "LoadBalancer", Value: arnSuffix},
		},
		Stat:  stat,
		Label: label,
	}
}

// cloudFrontErrorMetrics are the distribution error rates in percent.
func cloudFrontErrorMetrics(distributionID string) []Metric {
	return []Metric{
		cloudFrontMetric(distributionID, "TotalErrorRate", "Average", "Total error rate"),
		cloudFrontMetric(distributionID, "5xxErrorRate", "Average", "5xx error rate"),
	}
}

func cloudFrontRequestMetrics(distributionID string) []Metric {
	return []Metric{
		cloudFrontMetric(distributionID, "Requests", "Sum", "Requests"),
	}
}

// targetResponseCodeMetrics counts responses generated by the web server.
func targetResponseCodeMetrics(arnSuffix string) []Metric {
	var metrics []Metric
	for _, class := range []string{"2XX", "3XX", "4XX", "5XX"} {
		metrics = append(metrics, loadBalancerMetric(arnSuffix, "HTTPCode_Target_"+class+"_Count", "Sum", "Target "+class))
	}
	return metrics
}

// elbResponseCodeMetrics counts responses generated by the load balancer itself.
func elbResponseCodeMetrics(arnSuffix string) []Metric {
	var metrics []Metric
	for _, class := range []string{"3XX", "4XX", "5XX"} {
		metrics = append(metrics, loadBalancerMetric(arnSuffix, "HTTPCode_ELB_"+class+"_Count", "Sum", "ELB "+class))
	}
	return metrics
}

func targetResponseTimeMetrics(arnSuffix string) []Metric {
	return []Metric{
		loadBalancerMetric(arnSuffix, "TargetResponseTime", "Average", "Average"),
		loadBalancerMetric(arnSuffix, "TargetResponseTime", "Maximum", "Maximum"),
		loadBalancerMetric(arnSuffix, "TargetResponseTime", "p95", "p95"),
	}
}
