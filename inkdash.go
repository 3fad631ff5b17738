// Package inkdash is an interactive dashboard over Florida inmate records:
// offense trends, demographic breakdowns by race and county, and text
// mining of tattoo descriptions and charge summaries.
//
// Usage:
//
//	inkdash serve --data ./data
//
// The dataset package loads the tables once, the selection package holds
// the sidebar state, and the dashboard package re-renders every chart,
// table and narrative whenever the selection changes. Charts are emitted
// as Vega-Lite specs and rendered in the browser.
//
// All computation is local. The only network access is the optional S3
// artifact store.
package inkdash
