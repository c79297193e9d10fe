/*
	Copyright (c) 2015-2016 Christopher Young
	Distributable under the terms of The "BSD New"" License
	that can be found in the LICENSE file, herein included
	as part of this header.

	datalog.go: Log decoded traffic, own-ship and text products to sqlite as they are received.
	 Bucket rows into timestamp time slots.

*/

package main

import (
	"database/sql"
	"fmt"
	"math"
	"reflect"
	"strings"
	"time"

	"github.com/gansidui/geohash"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"

	"github.com/b3nn0/linkdecoder/report"
)

const (
	LOG_TIMESTAMP_RESOLUTION = 50 * time.Millisecond
	geohashPrecision         = 9
	dataLogQueueLen          = 10240
)

type timestampRow struct {
	id    int64
	Wall  time.Time
	Event time.Time
}

type trafficRow struct {
	Icao     string
	Callsign string
	Lat      float64
	Lon      float64
	Geohash  string
	Alt      float64
	Track    float64
	Speed    float64
	Vvel     float64
	OnGround bool
}

type ownshipRow struct {
	Lat     float64
	Lon     float64
	Geohash string
	Alt     float64
	Track   float64
	Speed   float64
}

type textRow struct {
	Product  string
	Location string
	Body     string
}

type dataLogRow struct {
	tbl  string
	ts   time.Time
	data interface{}
}

type SQLiteMarshal struct {
	FieldType string
	Marshal   func(v reflect.Value) interface{}
}

func boolMarshal(v reflect.Value) interface{} {
	if v.Bool() {
		return 1
	}
	return 0
}

func intMarshal(v reflect.Value) interface{} {
	return v.Int()
}

func uintMarshal(v reflect.Value) interface{} {
	return int64(v.Uint())
}

// floatMarshal stores unknown values as NULL.
func floatMarshal(v reflect.Value) interface{} {
	f := v.Float()
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return f
}

func stringMarshal(v reflect.Value) interface{} {
	return v.String()
}

func structMarshal(v reflect.Value) interface{} {
	if t, ok := v.Interface().(time.Time); ok {
		return t.UTC().Format(time.RFC3339Nano)
	}
	if s, ok := v.Interface().(fmt.Stringer); ok {
		return s.String()
	}
	return nil
}

var sqliteMarshalFunctions = map[string]SQLiteMarshal{
	"bool":   {FieldType: "INTEGER", Marshal: boolMarshal},
	"int":    {FieldType: "INTEGER", Marshal: intMarshal},
	"uint":   {FieldType: "INTEGER", Marshal: uintMarshal},
	"float":  {FieldType: "REAL", Marshal: floatMarshal},
	"string": {FieldType: "TEXT", Marshal: stringMarshal},
	"struct": {FieldType: "TEXT", Marshal: structMarshal},
}

var sqlTypeMap = map[reflect.Kind]string{
	reflect.Bool:    "bool",
	reflect.Int:     "int",
	reflect.Int8:    "int",
	reflect.Int16:   "int",
	reflect.Int32:   "int",
	reflect.Int64:   "int",
	reflect.Uint:    "uint",
	reflect.Uint8:   "uint",
	reflect.Uint16:  "uint",
	reflect.Uint32:  "uint",
	reflect.Uint64:  "uint",
	reflect.Float32: "float",
	reflect.Float64: "float",
	reflect.String:  "string",
	reflect.Struct:  "struct",
}

// columns lists the exported fields of a row struct that have a sqlite
// mapping, in declaration order.
func columns(val reflect.Value) []int {
	ret := make([]int, 0, val.NumField())
	for i := 0; i < val.NumField(); i++ {
		f := val.Type().Field(i)
		if _, ok := sqlTypeMap[f.Type.Kind()]; !ok || !f.IsExported() {
			continue
		}
		ret = append(ret, i)
	}
	return ret
}

func makeTable(i interface{}, tbl string, db *sql.DB) error {
	val := reflect.ValueOf(i)

	fields := make([]string, 0)
	for _, n := range columns(val) {
		f := val.Type().Field(n)
		fields = append(fields, f.Name+" "+sqliteMarshalFunctions[sqlTypeMap[f.Type.Kind()]].FieldType)
	}

	// Add the timestamp_id field to link up with the timestamp table.
	if tbl != "timestamp" {
		fields = append(fields, "timestamp_id INTEGER")
	}

	tblCreate := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (id INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT, %s)", tbl, strings.Join(fields, ", "))
	_, err := db.Exec(tblCreate)
	return err
}

func insertData(i interface{}, tbl string, db *sql.DB, timestampID int64) (int64, error) {
	val := reflect.ValueOf(i)

	keys := make([]string, 0)
	values := make([]interface{}, 0)
	for _, n := range columns(val) {
		f := val.Type().Field(n)
		keys = append(keys, f.Name)
		values = append(values, sqliteMarshalFunctions[sqlTypeMap[f.Type.Kind()]].Marshal(val.Field(n)))
	}

	// Add the timestamp_id field to link up with the timestamp table.
	if tbl != "timestamp" {
		keys = append(keys, "timestamp_id")
		values = append(values, timestampID)
	}

	tblInsert := fmt.Sprintf("INSERT INTO %s (%s) VALUES(%s)", tbl, strings.Join(keys, ","),
		strings.Join(strings.Split(strings.Repeat("?", len(keys)), ""), ","))

	res, err := db.Exec(tblInsert, values...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// dataLog is a report sink that queues rows for a single writer goroutine.
type dataLog struct {
	report.Nop
	db     *sql.DB
	logger *logrus.Logger
	rows   chan dataLogRow
	done   chan struct{}

	// Current timestamp bucket, owned by the writer.
	ts     timestampRow
	now    func() time.Time
	queued uint64
	lost   uint64
}

func openDataLog(fname string, logger *logrus.Logger) (*dataLog, error) {
	db, err := sql.Open("sqlite3", fname)
	if err != nil {
		return nil, fmt.Errorf("sql.Open(%s): %w", fname, err)
	}
	tables := map[string]interface{}{
		"timestamp": timestampRow{},
		"traffic":   trafficRow{},
		"ownship":   ownshipRow{},
		"text":      textRow{},
	}
	for tbl, row := range tables {
		if err := makeTable(row, tbl, db); err != nil {
			db.Close()
			return nil, fmt.Errorf("create table %s: %w", tbl, err)
		}
	}
	l := &dataLog{
		db:     db,
		logger: logger,
		rows:   make(chan dataLogRow, dataLogQueueLen),
		done:   make(chan struct{}),
		now:    time.Now,
	}
	go l.writer()
	return l, nil
}

// checkTimestamp verifies that the current timestamp bucket is still within
// LOG_TIMESTAMP_RESOLUTION. Returns false if a new bucket was started.
func (l *dataLog) checkTimestamp(event time.Time) bool {
	wall := l.now()
	if l.ts.id != 0 && wall.Sub(l.ts.Wall) < LOG_TIMESTAMP_RESOLUTION {
		return true
	}
	l.ts = timestampRow{Wall: wall, Event: event}
	return false
}

func (l *dataLog) writer() {
	defer close(l.done)
	for r := range l.rows {
		// Check if our time bucket has expired or has never been entered.
		if !l.checkTimestamp(r.ts) {
			id, err := insertData(l.ts, "timestamp", l.db, 0)
			if err != nil {
				l.logger.WithError(err).Warn("datalog timestamp insert failed")
				continue
			}
			l.ts.id = id
		}
		if _, err := insertData(r.data, r.tbl, l.db, l.ts.id); err != nil {
			l.logger.WithError(err).WithField("table", r.tbl).Warn("datalog insert failed")
		}
	}
}

func (l *dataLog) queue(tbl string, ts time.Time, data interface{}) {
	select {
	case l.rows <- dataLogRow{tbl: tbl, ts: ts, data: data}:
		l.queued++
	default:
		l.lost++
	}
}

// Close drains the queue and closes the database.
func (l *dataLog) Close() error {
	close(l.rows)
	<-l.done
	return l.db.Close()
}

func encodeGeohash(lat, lon float64) string {
	hash, _ := geohash.Encode(lat, lon, geohashPrecision)
	return hash
}

func (l *dataLog) ReportTraffic(t report.Traffic) {
	l.queue("traffic", t.Time, trafficRow{
		Icao:     hexAddress(t.Address),
		Callsign: t.Callsign,
		Lat:      t.Lat,
		Lon:      t.Lon,
		Geohash:  encodeGeohash(t.Lat, t.Lon),
		Alt:      t.TrueAltFt,
		Track:    t.HeadingDeg,
		Speed:    t.SpeedKt,
		Vvel:     t.ClimbFpm,
		OnGround: t.OnGround,
	})
}

func (l *dataLog) ReportOwnship(o report.Ownship) {
	l.queue("ownship", o.Time, ownshipRow{
		Lat:     o.Lat,
		Lon:     o.Lon,
		Geohash: encodeGeohash(o.Lat, o.Lon),
		Alt:     o.TrueAltFt,
		Track:   o.HeadingDeg,
		Speed:   o.SpeedKt,
	})
}

func (l *dataLog) ReportMetar(b report.TextBulletin) {
	l.queue("text", b.Time, textRow{
		Product:  b.ProductType,
		Location: b.Location,
		Body:     b.Body,
	})
}
