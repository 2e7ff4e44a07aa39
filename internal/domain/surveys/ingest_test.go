package surveys

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const header = "bssid,ssid,quality,signal,channel,encryption,timestamp\n"

func csvOf(rows ...string) []byte {
	return []byte(header + strings.Join(rows, "\n") + "\n")
}

func TestIngest_ValidFileAcceptsEveryRow(t *testing.T) {
	raw := csvOf(
		"AA:BB:CC:DD:EE:01,Office,80,-45,6,WPA2,2024-01-15 10:30:00",
		"AA:BB:CC:DD:EE:02,Guest,70,-60,11,Open,2024/01/15 10:31:00",
		"AA:BB:CC:DD:EE:03,,50,-75,1,WEP,15-01-2024 10:32:00",
	)

	res, err := Ingest(raw, 7, 42, nil)
	require.NoError(t, err)

	assert.Len(t, res.Accepted, 3)
	assert.Equal(t, 0, res.Duplicates)
	assert.Empty(t, res.Errors)
	assert.False(t, res.Fatal)

	first := res.Accepted[0]
	assert.Equal(t, int64(7), first.EnvironmentID)
	assert.Equal(t, int64(42), first.UploadedBy)
	assert.Equal(t, "Office", first.SSID)
	require.NotNil(t, first.Quality)
	assert.Equal(t, 80, *first.Quality)
	require.NotNil(t, first.Signal)
	assert.Equal(t, -45, *first.Signal)
	require.NotNil(t, first.Channel)
	assert.Equal(t, 6, *first.Channel)
	assert.Equal(t, "WPA2", first.Encryption)
	assert.False(t, first.RogueAPPotential)

	// file order is preserved
	assert.Equal(t, "AA:BB:CC:DD:EE:02", res.Accepted[1].BSSID)
	assert.Equal(t, "", res.Accepted[2].SSID)
}

func TestIngest_SecondRunIsIdempotent(t *testing.T) {
	raw := csvOf(
		"AA:BB:CC:DD:EE:01,Office,80,-45,6,WPA2,2024-01-15 10:30:00",
		"AA:BB:CC:DD:EE:02,Guest,70,-60,11,Open,2024-01-15 10:31:00",
		"aa:bb:cc:dd:ee:03,Lab,,,,WPA3,2024-01-15T10:32:00Z",
	)

	first, err := Ingest(raw, 1, 1, nil)
	require.NoError(t, err)
	require.Len(t, first.Accepted, 3)

	existing := NewPairSet()
	for _, r := range first.Accepted {
		existing.Add(r.Pair())
	}

	second, err := Ingest(raw, 1, 1, existing)
	require.NoError(t, err)
	assert.Empty(t, second.Accepted)
	assert.Equal(t, 3, second.Duplicates)
	assert.Empty(t, second.Errors)
}

func TestIngest_DoesNotMutateExistingSnapshot(t *testing.T) {
	existing := NewPairSet(Pair{BSSID: "AA:BB:CC:DD:EE:01", SSID: "Office"})
	raw := csvOf("AA:BB:CC:DD:EE:02,Guest,70,-60,11,Open,2024-01-15 10:31:00")

	_, err := Ingest(raw, 1, 1, existing)
	require.NoError(t, err)
	assert.Len(t, existing, 1)
}

func TestIngest_NormalizesBSSID(t *testing.T) {
	res, err := Ingest(csvOf("  aa:bb:cc:dd:ee:ff ,Net,80,-45,6,WPA2,2024-01-15 10:30:00"), 1, 1, nil)
	require.NoError(t, err)
	require.Len(t, res.Accepted, 1)
	assert.Equal(t, "AA:BB:CC:DD:EE:FF", res.Accepted[0].BSSID)
}

func TestIngest_InvalidBSSIDSkipsRow(t *testing.T) {
	raw := csvOf(
		"AA:BB:CC,Net,80,-45,6,WPA2,2024-01-15 10:30:00",
		"AA:BB:CC:DD:EE:FF,Net,80,-45,6,WPA2,2024-01-15 10:30:00",
	)

	res, err := Ingest(raw, 1, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Row 1: Invalid BSSID format 'AA:BB:CC'"}, res.Errors)
	assert.Len(t, res.Accepted, 1)
	assert.Equal(t, 0, res.Duplicates)
}

func TestIngest_MissingColumn(t *testing.T) {
	raw := []byte("bssid,ssid,quality,signal,encryption,timestamp\nAA:BB:CC:DD:EE:FF,Net,80,-45,WPA2,2024-01-15 10:30:00\n")

	res, err := Ingest(raw, 1, 1, nil)
	require.NoError(t, err)
	assert.Empty(t, res.Accepted)
	assert.Equal(t, 0, res.Duplicates)
	assert.True(t, res.Fatal)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "channel")
}

func TestIngest_MissingColumnsReportedAsSet(t *testing.T) {
	res, err := Ingest([]byte("ssid,quality,encryption\n"), 1, 1, nil)
	require.NoError(t, err)
	require.Len(t, res.Errors, 1)

	msg := strings.TrimPrefix(res.Errors[0], "Missing required columns: ")
	assert.ElementsMatch(t, []string{"bssid", "signal", "channel", "timestamp"}, strings.Split(msg, ", "))
}

func TestIngest_HeaderNamesAreCaseSensitive(t *testing.T) {
	raw := []byte("BSSID,ssid,quality,signal,channel,encryption,timestamp\n")
	res, err := Ingest(raw, 1, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Missing required columns: bssid"}, res.Errors)
}

func TestIngest_ColumnOrderAndExtraColumns(t *testing.T) {
	raw := []byte("timestamp,vendor,ssid,bssid,encryption,channel,signal,quality\n" +
		"2024-01-15 10:30:00,Acme,Net,AA:BB:CC:DD:EE:FF,WPA2,6,-45,80\n")

	res, err := Ingest(raw, 1, 1, nil)
	require.NoError(t, err)
	require.Len(t, res.Accepted, 1)
	assert.Equal(t, "AA:BB:CC:DD:EE:FF", res.Accepted[0].BSSID)
	assert.Equal(t, 80, *res.Accepted[0].Quality)
}

func TestIngest_EmptyFile(t *testing.T) {
	for _, raw := range [][]byte{nil, []byte(""), []byte("\n\n")} {
		res, err := Ingest(raw, 1, 1, nil)
		require.NoError(t, err)
		assert.Empty(t, res.Accepted)
		assert.True(t, res.Fatal)
		assert.Equal(t, []string{"CSV file appears to be empty or invalid"}, res.Errors)
	}
}

func TestIngest_HeaderOnly(t *testing.T) {
	res, err := Ingest([]byte(header), 1, 1, nil)
	require.NoError(t, err)
	assert.Empty(t, res.Accepted)
	assert.Empty(t, res.Errors)
	assert.False(t, res.Fatal)
}

func TestIngest_InvalidUTF8(t *testing.T) {
	raw := append([]byte(header), 0xff, 0xfe, '\n')

	res, err := Ingest(raw, 1, 1, nil)
	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, len(header), decodeErr.Offset)
	assert.Empty(t, res.Accepted)
	assert.Empty(t, res.Errors)
}

func TestIngest_StripsByteOrderMark(t *testing.T) {
	raw := append([]byte("\ufeff"), csvOf("AA:BB:CC:DD:EE:FF,Net,80,-45,6,WPA2,2024-01-15 10:30:00")...)

	res, err := Ingest(raw, 1, 1, nil)
	require.NoError(t, err)
	assert.Empty(t, res.Errors)
	assert.Len(t, res.Accepted, 1)
}

func TestIngest_TimestampZSuffixIsNaive(t *testing.T) {
	raw := csvOf(
		"AA:BB:CC:DD:EE:01,A,,,,WPA2,2024-01-15T10:30:00Z",
		"AA:BB:CC:DD:EE:02,B,,,,WPA2,2024-01-15 10:30:00",
	)

	res, err := Ingest(raw, 1, 1, nil)
	require.NoError(t, err)
	require.Len(t, res.Accepted, 2)
	assert.True(t, res.Accepted[0].Timestamp.Equal(res.Accepted[1].Timestamp))
	assert.Equal(t, time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC), res.Accepted[0].Timestamp)
}

func TestIngest_InBatchDuplicate(t *testing.T) {
	raw := csvOf(
		"AA:BB:CC:DD:EE:FF,Net,80,-45,6,WPA2,2024-01-15 10:30:00",
		"aa:bb:cc:dd:ee:ff, Net ,10,-90,1,WEP,2024-01-16 10:30:00",
	)

	res, err := Ingest(raw, 1, 1, nil)
	require.NoError(t, err)
	require.Len(t, res.Accepted, 1)
	assert.Equal(t, 1, res.Duplicates)
	assert.Empty(t, res.Errors)
	assert.Equal(t, 80, *res.Accepted[0].Quality)
}

func TestIngest_SameBSSIDDifferentSSIDIsNotDuplicate(t *testing.T) {
	raw := csvOf(
		"AA:BB:CC:DD:EE:FF,Net,80,-45,6,WPA2,2024-01-15 10:30:00",
		"AA:BB:CC:DD:EE:FF,Net-5G,80,-45,36,WPA2,2024-01-15 10:30:00",
	)

	res, err := Ingest(raw, 1, 1, nil)
	require.NoError(t, err)
	assert.Len(t, res.Accepted, 2)
	assert.Equal(t, 0, res.Duplicates)
}

func TestIngest_PreExistingDuplicate(t *testing.T) {
	existing := NewPairSet(Pair{BSSID: "AA:BB:CC:DD:EE:FF", SSID: "Net"})
	raw := csvOf(
		"AA:BB:CC:DD:EE:FF,Net,80,-45,6,WPA2,2024-01-15 10:30:00",
		"AA:BB:CC:DD:EE:00,Net,80,-45,6,WPA2,2024-01-15 10:30:00",
	)

	res, err := Ingest(raw, 1, 1, existing)
	require.NoError(t, err)
	assert.Len(t, res.Accepted, 1)
	assert.Equal(t, 1, res.Duplicates)
}

func TestIngest_LongSSIDIsAccepted(t *testing.T) {
	long := strings.Repeat("x", 33)
	res, err := Ingest(csvOf("AA:BB:CC:DD:EE:FF,"+long+",80,-45,6,WPA2,2024-01-15 10:30:00"), 1, 1, nil)
	require.NoError(t, err)
	assert.Empty(t, res.Errors)
	require.Len(t, res.Accepted, 1)
	assert.Equal(t, long, res.Accepted[0].SSID)
}

func TestIngest_RepeatedColumnUsesLastValue(t *testing.T) {
	raw := []byte("bssid,ssid,quality,signal,channel,encryption,timestamp,ssid\n" +
		"AA:BB:CC:DD:EE:FF,first,80,-45,6,WPA2,2024-01-15 10:30:00,second\n")

	res, err := Ingest(raw, 1, 1, nil)
	require.NoError(t, err)
	require.Len(t, res.Accepted, 1)
	assert.Equal(t, "second", res.Accepted[0].SSID)
}

func TestIngest_EmptyNumericFieldsAreUnset(t *testing.T) {
	res, err := Ingest(csvOf("AA:BB:CC:DD:EE:FF,Net, , ,,WPA2,2024-01-15 10:30:00"), 1, 1, nil)
	require.NoError(t, err)
	assert.Empty(t, res.Errors)
	require.Len(t, res.Accepted, 1)
	assert.Nil(t, res.Accepted[0].Quality)
	assert.Nil(t, res.Accepted[0].Signal)
	assert.Nil(t, res.Accepted[0].Channel)
}

func TestIngest_RowErrors(t *testing.T) {
	tests := []struct {
		name string
		row  string
		want string
	}{
		{
			name: "non numeric quality",
			row:  "AA:BB:CC:DD:EE:FF,Net,high,-45,6,WPA2,2024-01-15 10:30:00",
			want: "Row 1: Invalid numeric value - invalid integer for quality: 'high'",
		},
		{
			name: "decimal signal",
			row:  "AA:BB:CC:DD:EE:FF,Net,80,-45.5,6,WPA2,2024-01-15 10:30:00",
			want: "Row 1: Invalid numeric value - invalid integer for signal: '-45.5'",
		},
		{
			name: "unknown timestamp layout",
			row:  "AA:BB:CC:DD:EE:FF,Net,80,-45,6,WPA2, Jan 15 2024 ",
			want: "Row 1: Invalid timestamp format 'Jan 15 2024'",
		},
		{
			name: "short row",
			row:  "AA:BB:CC:DD:EE:FF,Net,80,-45",
			want: "Row 1: Error processing row - missing value for column 'channel'",
		},
		{
			name: "lower case hex with dashes",
			row:  "aa-bb-cc-dd-ee-ff,Net,80,-45,6,WPA2,2024-01-15 10:30:00",
			want: "Row 1: Invalid BSSID format 'AA-BB-CC-DD-EE-FF'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Ingest(csvOf(tt.row), 1, 1, nil)
			require.NoError(t, err)
			assert.Equal(t, []string{tt.want}, res.Errors)
			assert.Empty(t, res.Accepted)
			assert.Equal(t, 0, res.Duplicates)
			assert.False(t, res.Fatal)
		})
	}
}

func TestIngest_RowNumbersAndContinuation(t *testing.T) {
	raw := csvOf(
		"AA:BB:CC:DD:EE:01,A,80,-45,6,WPA2,2024-01-15 10:30:00",
		"bogus,B,80,-45,6,WPA2,2024-01-15 10:30:00",
		"AA:BB:CC:DD:EE:03,C,80,-45,6,WPA2,yesterday",
		"AA:BB:CC:DD:EE:01,A,80,-45,6,WPA2,2024-01-15 10:30:00",
		"AA:BB:CC:DD:EE:05,E,80,-45,6,WPA2,2024-01-15 10:30:00",
	)

	res, err := Ingest(raw, 1, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Row 2: Invalid BSSID format 'BOGUS'",
		"Row 3: Invalid timestamp format 'yesterday'",
	}, res.Errors)
	assert.Equal(t, 1, res.Duplicates)
	require.Len(t, res.Accepted, 2)
	assert.Equal(t, "E", res.Accepted[1].SSID)
}

func TestIngest_DuplicateCheckedBeforeNumericParsing(t *testing.T) {
	existing := NewPairSet(Pair{BSSID: "AA:BB:CC:DD:EE:FF", SSID: "Net"})
	res, err := Ingest(csvOf("AA:BB:CC:DD:EE:FF,Net,bad,bad,bad,WPA2,never"), 1, 1, existing)
	require.NoError(t, err)
	assert.Empty(t, res.Errors)
	assert.Equal(t, 1, res.Duplicates)
}

func TestIngest_EncryptionPassedThrough(t *testing.T) {
	res, err := Ingest(csvOf("AA:BB:CC:DD:EE:FF,Net,80,-45,6,,2024-01-15 10:30:00"), 1, 1, nil)
	require.NoError(t, err)
	require.Len(t, res.Accepted, 1)
	assert.Equal(t, "", res.Accepted[0].Encryption)
	assert.Equal(t, "Open", res.Accepted[0].DisplayEncryption())
}

func TestIngest_QuotedFields(t *testing.T) {
	res, err := Ingest(csvOf(`AA:BB:CC:DD:EE:FF,"Cafe, Upstairs",80,-45,6,"WPA2, WPA3",2024-01-15 10:30:00`), 1, 1, nil)
	require.NoError(t, err)
	require.Len(t, res.Accepted, 1)
	assert.Equal(t, "Cafe, Upstairs", res.Accepted[0].SSID)
	assert.Equal(t, "WPA2, WPA3", res.Accepted[0].Encryption)
}

func TestIngest_LargeFile(t *testing.T) {
	var rows []string
	for i := 0; i < 500; i++ {
		rows = append(rows, fmt.Sprintf("AA:BB:CC:DD:%02X:%02X,net-%d,50,-60,6,WPA2,2024-01-15 10:30:00", i/256, i%256, i))
	}

	res, err := Ingest(csvOf(rows...), 1, 1, nil)
	require.NoError(t, err)
	assert.Len(t, res.Accepted, 500)
	assert.Empty(t, res.Errors)
}

func TestValidateHeader(t *testing.T) {
	cols, missing := ValidateHeader([]string{"ssid", "bssid", "x", "bssid"})
	assert.Equal(t, 3, cols["bssid"])
	assert.Equal(t, []string{"channel", "encryption", "quality", "signal", "timestamp"}, missing)
}
