package entities

import "testing"

func TestDemand_Validation(t *testing.T) {
	validDemand, err := NewDemand("DEM-001", "ITEM-42", 60, 50)
	if err != nil {
		t.Fatalf("Expected valid demand creation to succeed: %v", err)
	}
	if validDemand.ApprovedQty != 50 {
		t.Errorf("Expected approved quantity 50, got %d", validDemand.ApprovedQty)
	}

	testCases := []struct {
		name         string
		id           DemandID
		itemID       ItemID
		requestedQty Quantity
		approvedQty  Quantity
		expectError  string
	}{
		{"empty id", "", "ITEM-42", 10, 5, "demand id cannot be empty"},
		{"empty item", "DEM-001", "", 10, 5, "item id cannot be empty"},
		{"negative requested", "DEM-001", "ITEM-42", -1, 0, "requested quantity cannot be negative, got -1"},
		{"negative approved", "DEM-001", "ITEM-42", 10, -3, "approved quantity cannot be negative, got -3"},
		{"approved above requested", "DEM-001", "ITEM-42", 10, 11, "approved quantity 11 exceeds requested quantity 10"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewDemand(tc.id, tc.itemID, tc.requestedQty, tc.approvedQty)
			if err == nil {
				t.Fatalf("Expected error for %s, but got none", tc.name)
			}
			if err.Error() != tc.expectError {
				t.Errorf("Expected error '%s', got '%s'", tc.expectError, err.Error())
			}
		})
	}

	// Zero approval is a legal, if empty, demand
	if _, err := NewDemand("DEM-002", "ITEM-42", 10, 0); err != nil {
		t.Errorf("Expected zero approval to be accepted: %v", err)
	}
}
