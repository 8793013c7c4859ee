/*
Example demonstrating multi-object tracking over a recorded video.

Detections are replayed from a JSON file of per frame detector output, run
through the hybrid tracker, and the annotated video is streamed as MJPEG
over HTTP.

Usage:

	go run main.go -v video.mp4 -d detections.json -l labels.txt

Then open http://localhost:8080 in a browser.
*/
package main

import (
	"flag"
	"fmt"
	"image"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"gocv.io/x/gocv"

	hybridtrack "github.com/cvkit/go-hybridtrack"
	"github.com/cvkit/go-hybridtrack/render"
	"github.com/cvkit/go-hybridtrack/tracker"
	"github.com/cvkit/go-hybridtrack/zone"
)

var (
	// FPS is the number of FPS to simulate
	FPS         = int64(30)
	FPSinterval = time.Duration(float64(time.Second) / float64(FPS))
)

// Demo defines the struct for running the object tracking demo
type Demo struct {
	// vidBuffer buffers the video frames into memory
	vidBuffer []gocv.Mat
	// frames holds the recorded per frame detector output
	frames []hybridtrack.FrameDetections
	// ht tracks objects across frames.  One tracker serves one stream,
	// frame steps are strictly sequential
	ht *tracker.HybridTracker
	// labels are the class names the detection model was trained on
	labels []string
	// zones are the watched regions of the frame, may be nil
	zones *zone.Set
}

// NewDemo returns an instance of Demo, a streaming HTTP server showing
// video with tracked objects
func NewDemo(vidFile, detFile, labelFile string) (*Demo, error) {

	d := &Demo{}

	err := d.bufferVideo(vidFile)

	if err != nil {
		return nil, fmt.Errorf("error buffering video: %w", err)
	}

	d.frames, err = hybridtrack.LoadDetections(detFile)

	if err != nil {
		return nil, fmt.Errorf("error loading detections: %w", err)
	}

	if labelFile != "" {
		d.labels, err = hybridtrack.LoadLabels(labelFile)

		if err != nil {
			return nil, fmt.Errorf("error loading class labels: %w", err)
		}
	}

	d.ht, err = tracker.NewHybridTracker(tracker.DefaultConfig())

	if err != nil {
		return nil, fmt.Errorf("error creating tracker: %w", err)
	}

	return d, nil
}

// WatchZone adds a polygonal zone to report occupancy for.  The polygon is
// given as a semicolon delimited list of x,y vertices,
// eg: "100,100;400,100;400,400;100,400"
func (d *Demo) WatchZone(name, polygon string) error {

	var points []image.Point

	for _, pair := range strings.Split(polygon, ";") {

		xy := strings.Split(strings.TrimSpace(pair), ",")

		if len(xy) != 2 {
			return fmt.Errorf("invalid zone vertex %q", pair)
		}

		x, err := strconv.Atoi(strings.TrimSpace(xy[0]))

		if err != nil {
			return fmt.Errorf("invalid zone vertex %q: %w", pair, err)
		}

		y, err := strconv.Atoi(strings.TrimSpace(xy[1]))

		if err != nil {
			return fmt.Errorf("invalid zone vertex %q: %w", pair, err)
		}

		points = append(points, image.Pt(x, y))
	}

	z, err := zone.NewZone(name, points)

	if err != nil {
		return err
	}

	// half the box must sit inside the zone to count as occupying it
	d.zones, err = zone.NewSet(0.5, z)

	return err
}

// bufferVideo reads in the video frames and saves them to a buffer
func (d *Demo) bufferVideo(vidFile string) error {

	// open handle to read frames of video file
	video, err := gocv.VideoCaptureFile(vidFile)

	if err != nil {
		return err
	}

	defer video.Close()

	d.vidBuffer = make([]gocv.Mat, 0)

	for {
		img := gocv.NewMat()

		// read the next frame from the video
		if ok := video.Read(&img); !ok {
			// reached last video frame
			break
		}

		// Check if the frame is empty
		if img.Empty() {
			continue
		}

		// push frame onto buffer
		d.vidBuffer = append(d.vidBuffer, img)
	}

	return nil
}

// detectionsFor returns the recorded detector output for the given frame
func (d *Demo) detectionsFor(frameNum int) []tracker.Object {

	for i := range d.frames {
		if d.frames[i].Frame == frameNum {
			return d.frames[i].ToObjects()
		}
	}

	return nil
}

// Stream is the HTTP handler function used to stream video frames to browser
func (d *Demo) Stream(w http.ResponseWriter, r *http.Request) {

	log.Printf("New client connection established\n")

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")

	// each client replays the stream from the start with fresh track IDs
	d.ht.Reset()

	// pointer to position in video buffer
	frameNum := -1

	ticker := time.NewTicker(FPSinterval)
	defer ticker.Stop()

loop:
	for {
		select {
		case <-r.Context().Done():
			log.Printf("Client disconnected\n")
			break loop

		// simulate reading a 30FPS web camera
		case <-ticker.C:

			// increment pointer to next image in the video buffer
			frameNum++
			if frameNum > len(d.vidBuffer)-1 {
				frameNum = 0
				d.ht.Reset()
			}

			// frame steps must run in order so process inline rather
			// than on a goroutine
			buf, err := d.ProcessFrame(d.vidBuffer[frameNum], frameNum)

			if err != nil {
				log.Printf("Error processing frame %d: %v", frameNum, err)
				continue
			}

			// Write the image to the response writer
			w.Write([]byte("--frame\r\n"))
			w.Write([]byte("Content-Type: image/jpeg\r\n\r\n"))
			w.Write(buf.GetBytes())
			w.Write([]byte("\r\n"))

			// Flush the buffer
			flusher, ok := w.(http.Flusher)
			if ok {
				flusher.Flush()
			}

			buf.Close()
		}
	}
}

// ProcessFrame runs one tracker frame step over the recorded detections,
// annotates a copy of the image and returns it encoded as a JPG file
func (d *Demo) ProcessFrame(img gocv.Mat, frameNum int) (*gocv.NativeByteBuffer, error) {

	trackedObjects, err := d.ht.Update(d.detectionsFor(frameNum))

	if err != nil {
		return nil, fmt.Errorf("error updating tracker: %w", err)
	}

	// copy the source image and annotate the copy
	resImg := gocv.NewMat()
	defer resImg.Close()
	img.CopyTo(&resImg)

	render.Trails(&resImg, trackedObjects, d.ht, render.DefaultTrailStyle())
	render.PredictedBoxes(&resImg, trackedObjects, 1)
	render.TrackerBoxes(&resImg, trackedObjects, d.labels, render.DefaultFont(), 2)

	if d.zones != nil {

		polygons := make([][]image.Point, 0)

		for _, z := range d.zones.Zones() {
			polygons = append(polygons, z.Points())
		}

		render.Zones(&resImg, polygons, render.Yellow, 2)

		// log zone occupancy for the frame
		for name, ids := range d.zones.Occupancy(trackedObjects) {
			if len(ids) > 0 {
				log.Printf("frame %d: zone %s holds tracks %v", frameNum, name, ids)
			}
		}
	}

	// Encode the image to JPEG format
	return gocv.IMEncode(".jpg", resImg)
}

func main() {
	// disable logging timestamps
	log.SetFlags(0)

	vidFile := flag.String("v", "", "Video file to run tracking on")
	detFile := flag.String("d", "", "JSON file of recorded per frame detections")
	labelFile := flag.String("l", "", "Text file of class labels, one per line")
	zonePoly := flag.String("z", "", "Optional zone polygon, eg: \"100,100;400,100;400,400\"")
	addr := flag.String("a", "localhost:8080", "HTTP Address to run server on, format address:port")

	flag.Parse()

	if *vidFile == "" || *detFile == "" {
		flag.PrintDefaults()
		log.Fatal("Video file and detections file are required")
	}

	demo, err := NewDemo(*vidFile, *detFile, *labelFile)

	if err != nil {
		log.Fatalf("Error creating demo: %v", err)
	}

	if *zonePoly != "" {
		if err := demo.WatchZone("zone", *zonePoly); err != nil {
			log.Fatalf("Error creating zone: %v", err)
		}
	}

	http.HandleFunc("/", demo.Stream)

	log.Printf("Open browser and view video at http://%s\n", *addr)
	log.Fatal(http.ListenAndServe(*addr, nil))
}
