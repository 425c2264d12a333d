package segmenter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCustomerFile(t *testing.T) {
	records, err := ParseCustomerFile("testdata/customers.csv")
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, "c-001", records[0].ID)
	assert.Equal(t, 2, records[0].Line)
	assert.Equal(t, DefaultFeatureVector(), records[0].Features)

	assert.Equal(t, "c-003", records[2].ID)
	assert.Equal(t, 5, records[2].Line, "line numbers count the skipped blank line")
	assert.Equal(t, AssembleFeatures(29, 20000, 50, 1, 2, 7, 45), records[2].Features)
}

func TestParseCustomersWithoutID(t *testing.T) {
	csv := "Age,Income,Total_Spending,NumWebPurchases,NumStorePurchases,NumWebVisitsMonth,Recency\n" +
		"35,50000,1000,10,10,5,30\n" +
		",,,,,,\n" +
		"40,60000,800,3,4,5,6\n"
	records, err := ParseCustomers(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "1", records[0].ID)
	assert.Equal(t, "2", records[1].ID)
	assert.Equal(t, 4, records[1].Line)
}

func TestParseCustomersErrors(t *testing.T) {
	_, err := ParseCustomers(strings.NewReader("Age,Income\n1,2\n"))
	assert.ErrorContains(t, err, "missing columns")

	_, err = ParseCustomers(strings.NewReader(
		"Age,Income,Total_Spending,NumWebPurchases,NumStorePurchases,NumWebVisitsMonth,Recency\n" +
			"35,lots,1000,10,10,5,30\n"))
	assert.ErrorContains(t, err, "line 2")

	_, err = ParseCustomerFile("testdata/nope.csv")
	assert.ErrorContains(t, err, "nope.csv")
}
