package model

// CBMPreset is a common container volume offered next to the cbm input.
type CBMPreset struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Suggestions are the autocomplete lists shown by the editor.
type Suggestions struct {
	Descriptions []string    `json:"descriptions"`
	Units        []string    `json:"units"`
	CBM          []CBMPreset `json:"cbm"`
	Rates        []string    `json:"rates"`
	Quantities   []string    `json:"quantities"`
}

// DefaultSuggestions returns the built-in sea-freight lists.
func DefaultSuggestions() Suggestions {
	return Suggestions{
		Descriptions: []string{
			"Ocean Freight Charges",
			"20' Standard Container Shipment",
			"40' Standard Container Shipment",
			"40' High Cube Container Shipment",
			"LCL Consolidated Cargo",
			"Terminal Handling Charges (THC)",
			"Documentation Fee",
			"Bill of Lading Fee",
			"Customs Clearance",
			"Inland Haulage / Transport",
			"Port Congestion Surcharge",
			"Bunker Adjustment Factor (BAF)",
			"Currency Adjustment Factor (CAF)",
			"Electronic Cargo Tracking Note (ECTN)",
		},
		Units: []string{
			"Container", "20' CNTR", "40' CNTR", "40' HC", "CBM", "Kgs", "MT",
			"Pcs", "Pkgs", "Pallets", "Boxes", "Lump Sum", "Shipment",
		},
		CBM: []CBMPreset{
			{Value: "33.2", Label: "20ft Std"},
			{Value: "67.7", Label: "40ft Std"},
			{Value: "76.4", Label: "40ft HC"},
			{Value: "1.0", Label: "Min LCL"},
		},
		Rates: []string{
			"50.00", "100.00", "150.00", "250.00", "500.00",
			"1200.00", "1800.00", "2500.00", "3500.00", "4500.00",
		},
		Quantities: []string{"1", "2", "3", "10", "100"},
	}
}
