package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"fleet-route-planner/internal/planner"
	"fleet-route-planner/internal/ports"
	"fleet-route-planner/internal/scenario"
	"fleet-route-planner/internal/services"
)

var (
	scenarioPath = flag.String("scenario", "", "Path to a scenario YAML file")
	agentName    = flag.String("agent", planner.AgentGreedyTwoOpt, "Planning strategy: "+strings.Join(planner.Names(), "|"))
	seed         = flag.Int64("seed", 0, "Seed for the neural strategy")
	maxPackages  = flag.Int("max-packages", 0, "Backtracking input cap, 0 for the default")
	twoOptIters  = flag.Int("two-opt", 0, "Two-opt improvement scan cap, 0 for the default")
	jsonOut      = flag.Bool("json", false, "Print the plan as JSON instead of text")
)

// planctl plans a scenario file offline, without the server or any
// external routing service. Distances come from map geometry.
func main() {
	flag.Parse()
	if *scenarioPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	s, err := scenario.Load(*scenarioPath)
	if err != nil {
		log.Fatal(err)
	}
	req, err := s.Request()
	if err != nil {
		log.Fatal(err)
	}
	req.Seed = *seed

	agent, err := planner.New(*agentName, planner.Options{
		MaxPackages:   *maxPackages,
		TwoOptMaxIter: *twoOptIters,
	})
	if err != nil {
		log.Fatal(err)
	}

	plan, err := agent.PlanRoutes(context.Background(), req)
	if err != nil {
		log.Fatal(err)
	}

	result := services.ResultFromPlan(plan, req.Map)
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			log.Fatal(err)
		}
		return
	}

	printResult(s.Name, result)
	if result.SizeLimited {
		os.Exit(1)
	}
}

func printResult(name string, result *ports.PlanResult) {
	fmt.Printf("Scenario: %s\n", name)
	fmt.Printf("Agent:    %s\n\n", result.Agent)

	for _, r := range result.Routes {
		ids := make([]string, 0, len(r.Stops))
		for _, s := range r.Stops {
			ids = append(ids, s.PackageID)
		}
		fmt.Printf("%s (%s): %d stops, %.1f km, profit %.2f, utilization %.0f%%\n",
			r.VehicleID, r.VehicleType, len(r.Stops), r.DistanceKm, r.Profit, r.Utilization*100)
		fmt.Printf("  %s\n", strings.Join(ids, " -> "))
	}
	if len(result.Unassigned) > 0 {
		fmt.Printf("Unassigned (%d): %s\n", len(result.Unassigned), strings.Join(result.Unassigned, ", "))
	}
	for _, w := range result.Warnings {
		fmt.Printf("Warning: %s\n", w)
	}

	s := result.Summary
	fmt.Printf("\nDelivered %d/%d packages with %d vehicles\n",
		s.PackagesDelivered, s.PackagesDelivered+s.PackagesUnassigned, s.VehiclesUsed)
	fmt.Printf("Distance %.1f km, revenue %.2f, cost %.2f, profit %.2f\n",
		s.TotalDistanceKm, s.TotalRevenue, s.TotalCost, s.TotalProfit)
}
