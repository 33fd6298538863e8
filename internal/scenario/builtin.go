package scenario

import "regard/internal/tracking"

// DefaultName is the scenario used when none is configured.
const DefaultName = "paris"

// BuiltIn returns the predefined scenarios.
func BuiltIn() map[string]Scenario {
	return map[string]Scenario{
		"paris": {
			Name:        "Paris",
			Description: "Five assets around central Paris; one signal resurfaces in New York.",
			Entities: []EntitySeed{
				{
					ID:            "ID-734-ALPHA",
					Name:          "Asset Alpha",
					Type:          tracking.TypeVehicle,
					Tags:          []string{"critical", "asset"},
					Origin:        Coordinate{Lat: 48.8584, Lng: 2.2945},
					HistoryPoints: 50,
					Drift:         0.005,
				},
				{
					ID:            "ID-112-BRAVO",
					Name:          "Drone Bravo",
					Type:          tracking.TypeDrone,
					Tags:          []string{"high-velocity"},
					Origin:        Coordinate{Lat: 48.8606, Lng: 2.3376},
					HistoryPoints: 30,
					Drift:         0.01,
				},
				{
					ID:            "ID-987-CHARLIE",
					Name:          "Agent Charlie",
					Type:          tracking.TypePerson,
					Tags:          []string{"restricted-zone"},
					Origin:        Coordinate{Lat: 48.853, Lng: 2.349},
					HistoryPoints: 20,
					Drift:         0.001,
					Jump:          &Jump{To: Coordinate{Lat: 40.7128, Lng: -74.0060}, Points: 10, Drift: 0.001},
					Anomaly: &tracking.AnomalyInterpretation{
						Interpretation: "Sudden, geographically impossible relocation detected. Potential signal hijack or device malfunction. Track lost in Paris and re-established in New York.",
						Confidence:     0.95,
					},
				},
				{
					ID:            "ID-404-DELTA",
					Name:          "Vehicle Delta",
					Type:          tracking.TypeVehicle,
					Tags:          []string{"asset"},
					Origin:        Coordinate{Lat: 48.8738, Lng: 2.3522},
					HistoryPoints: 100,
					Drift:         0.002,
				},
				{
					ID:            "ID-852-ECHO",
					Name:          "Drone Echo",
					Type:          tracking.TypeDrone,
					Tags:          []string{"high-velocity", "critical"},
					Origin:        Coordinate{Lat: 48.8462, Lng: 2.3762},
					HistoryPoints: 70,
					Drift:         0.008,
				},
			},
		},
		"quiet": {
			Name:        "Quiet",
			Description: "Two slow-moving assets and no prior anomalies.",
			Entities: []EntitySeed{
				{
					ID:            "ID-201-FOXTROT",
					Name:          "Vehicle Foxtrot",
					Type:          tracking.TypeVehicle,
					Tags:          []string{"asset"},
					Origin:        Coordinate{Lat: 45.764, Lng: 4.8357},
					HistoryPoints: 40,
					Drift:         0.001,
				},
				{
					ID:            "ID-305-GOLF",
					Name:          "Agent Golf",
					Type:          tracking.TypePerson,
					Origin:        Coordinate{Lat: 45.7578, Lng: 4.832},
					HistoryPoints: 25,
					Drift:         0.0005,
				},
			},
		},
	}
}
