/*
go-hybridtrack is a multi-object tracker by detection.  It maintains
persistent identities for moving objects across video frames given only a
per-frame list of detected bounding boxes from any object detection model.

Each tracked object carries a constant velocity Kalman filter for motion
prediction, a bounded history of center positions, and a majority vote over
recently observed class labels.  Detections are associated to tracks with a
two phase greedy matcher, overlap (IoU) first then center distance with
class preference.

The tracking engine lives in the tracker subpackage.  The zone subpackage
reports which tracks occupy named polygonal regions, and the render
subpackage draws tracker annotations on video frames.  This root package
holds loaders for class label files and offline detection sequences used by
the example programs.

See example code and usage in the example subdirectory.
*/
package hybridtrack
