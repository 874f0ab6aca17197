package forms

const stepHTML = `<html><body>
<div class="jobs-easy-apply-content">
  <div class="jobs-easy-apply-form-section__element" id="s-terms">
    <label for="tos">I agree to the Terms of Service</label>
    <input type="checkbox" id="tos">
  </div>
  <div class="jobs-easy-apply-form-section__element" id="s-radio">
    <fieldset>
      <legend>Do you have a valid driver's license?</legend>
      <div class="fb-text-selectable__option"><input type="radio" name="lic" id="lic-yes" value="Yes"><label for="lic-yes">Yes</label></div>
      <div class="fb-text-selectable__option"><input type="radio" name="lic" id="lic-no" value="No"><label for="lic-no">No</label></div>
    </fieldset>
  </div>
  <div class="jobs-easy-apply-form-section__element" id="s-years">
    <label for="years-numeric">Years of experience with Go</label>
    <input type="text" id="years-numeric">
  </div>
  <div class="jobs-easy-apply-form-section__element" id="s-city">
    <label for="city">City</label>
    <input id="city">
  </div>
  <div class="jobs-easy-apply-form-section__element" id="s-email">
    <label for="email">Email address</label>
    <input type="email" id="email" value="me@example.com">
  </div>
  <div class="jobs-easy-apply-form-section__element" id="s-why">
    <label for="why">Why do you want to join?</label>
    <textarea id="why"></textarea>
  </div>
  <div class="jobs-easy-apply-form-section__element" id="s-start">
    <label for="start">Earliest start date</label>
    <input type="text" class="artdeco-datepicker__input" id="start">
  </div>
  <div class="jobs-easy-apply-form-section__element" id="s-country">
    <label for="country">Country of residence</label>
    <select id="country">
      <option>Select an option</option>
      <option>Germany</option>
      <option>Portugal</option>
    </select>
  </div>
  <div class="jobs-easy-apply-form-section__element" id="s-upload">
    <label>Upload your resume<input type="file" id="resume-upload" hidden></label>
  </div>
  <div class="jobs-easy-apply-form-section__element" id="s-info">
    <span>Your profile will be shared with the employer.</span>
  </div>
</div>
</body></html>`
