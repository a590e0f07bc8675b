// Package mockup composites positioned design layers into a single
// product-mockup image.
//
// # Overview
//
// An editor places layers in a fixed logical world of WorldSize units
// square. Each Layer carries a move offset from the world centre, a
// rotation, a uniform scale and a skew. The Compositor redraws those
// layers at OutputSize pixels, multiplying every distance and scale by
// ScaleFactor so the export matches what the editor showed at a higher
// pixel density. Angles pass through unchanged.
//
// # Quick Start
//
//	import "github.com/gogpu/mockup"
//
//	res, err := mockup.Composite(ctx, []mockup.Layer{{
//	    ID:     "design",
//	    Source: mockup.FileSource{Name: "logo.png", Data: data},
//	    Scale:  1,
//	    MoveY:  -40,
//	}})
//	if err != nil {
//	    return err
//	}
//	os.WriteFile("mockup.jpg", res.Data, 0o644)
//
// # Layer Sources
//
// A layer is backed by a decoded image (ImageSource), an encoded upload
// (FileSource), or the URL of a stored preview (PreviewSource). Preview
// URLs are resolved through the Fetcher passed with WithFetcher. Every
// source is loaded before anything is drawn; one failure aborts the call
// with an *ImageLoadError naming the layer.
//
// # Coordinate System
//
//   - Origin (0,0) at top-left
//   - X increases right
//   - Y increases down
//   - Angles in degrees on Layer, radians on Canvas; positive turns clockwise
//
// Layer offsets are world units from the centre of the world. WorldToOutput
// and OutputToWorld convert between the two spaces.
//
// # Output
//
// The canvas starts fully transparent. PNG output keeps the transparency.
// JPEG output (the default, quality 85) is flattened over a matte color,
// white unless WithMatte says otherwise.
//
// # Logging
//
// The package is silent by default. See SetLogger.
package mockup
